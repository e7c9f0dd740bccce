package main

import "github.com/codegangsta/cli"

var (
	flAddr = cli.StringFlag{
		Name:   "addr",
		Value:  "127.0.0.1:4243",
		Usage:  "address to listen on",
		EnvVar: "BEAMD_ADDR",
	}
	flBufSize = cli.IntFlag{
		Name:   "buf-size",
		Value:  0,
		Usage:  "max buffered bytes per beam; 0 means unbounded",
		EnvVar: "BEAMD_BUF_SIZE",
	}
	flTimeout = cli.IntFlag{
		Name:   "timeout",
		Value:  0,
		Usage:  "seconds stored as each beam's Timeout setting; the stream pumps wait without a time bound",
		EnvVar: "BEAMD_TIMEOUT",
	}
	flCopyFiles = cli.BoolFlag{
		Name:   "copy-files",
		Usage:  "always copy file/mmap chunks rather than borrowing them across threads",
		EnvVar: "BEAMD_COPY_FILES",
	}
)
