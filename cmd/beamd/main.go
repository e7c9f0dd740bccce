package main

import (
	"net"
	"os"
	"time"

	log "github.com/Sirupsen/logrus"
	"github.com/codegangsta/cli"

	"github.com/docker/h2beam/beam"
	"github.com/docker/h2beam/transport/spdy"
)

func main() {
	app := cli.NewApp()
	app.Name = "beamd"
	app.Usage = "serve beams bridged from HTTP/2-predecessor streams"
	app.Version = "0.0.1"

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:   "debug",
			Usage:  "debug mode",
			EnvVar: "DEBUG",
		},
	}

	app.Before = func(c *cli.Context) error {
		log.SetOutput(os.Stderr)
		if c.Bool("debug") {
			log.SetLevel(log.DebugLevel)
		}
		return nil
	}

	app.Commands = []cli.Command{
		{
			Name:      "serve",
			ShortName: "s",
			Usage:     "accept connections and bridge each stream to a pair of beams",
			Flags: []cli.Flag{
				flAddr, flBufSize, flTimeout, flCopyFiles,
			},
			Action: serve,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// beamConfigFromContext builds the beam.Config every served stream will be
// bridged with, from the "serve" command's flags.
func beamConfigFromContext(c *cli.Context) beam.Config {
	return beam.Config{
		MaxBufSize: int64(c.Int("buf-size")),
		Timeout:    time.Duration(c.Int("timeout")) * time.Second,
		CopyFiles:  c.Bool("copy-files"),
	}
}

func serve(c *cli.Context) {
	ln, err := net.Listen("tcp", c.String("addr"))
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("beamd listening on %s", c.String("addr"))

	session := spdy.NewListenSession(ln, spdy.NoAuthenticator, beamConfigFromContext(c))
	if err := session.Serve(); err != nil {
		log.Fatal(err)
	}
}
