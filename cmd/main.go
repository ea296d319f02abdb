package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/charlesthegreat77/discimage/iso9660"
	"github.com/charlesthegreat77/discimage/wim"
)

func setupLogLevel(c *cli.Context) error {
	logLevel, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	logrus.SetLevel(logLevel)
	return nil
}

func buildOptions(c *cli.Context) (*iso9660.Options, error) {
	opts := iso9660.DefaultOptions()
	if path := c.String("config"); path != "" {
		var err error
		if opts, err = iso9660.LoadOptions(path); err != nil {
			return nil, err
		}
	}
	// flags win over the options file
	if c.IsSet("volume-id") {
		opts.VolumeIdentifierISO = c.String("volume-id")
	}
	if c.IsSet("joliet-volume-id") {
		opts.VolumeIdentifierJoliet = c.String("joliet-volume-id")
	}
	if c.IsSet("publisher") {
		opts.PublisherIdentifierISO = c.String("publisher")
		opts.PublisherIdentifierJoliet = c.String("publisher")
	}
	return opts, nil
}

func buildAction(c *cli.Context) error {
	if err := setupLogLevel(c); err != nil {
		return err
	}
	opts, err := buildOptions(c)
	if err != nil {
		return err
	}

	input, output := c.String("input"), c.String("output")
	logrus.Infof("building image from %s to %s", input, output)

	builder := iso9660.NewBuilder(input, output, opts)
	if err := builder.ScanSourceDirectory(); err != nil {
		return errors.Wrap(err, "scan source directory")
	}
	if err := builder.MarkFileNamesAsHidden(c.StringSlice("hide")...); err != nil {
		logrus.Warnf("hiding files: %v", err)
	}
	if err := builder.Build(); err != nil {
		return errors.Wrap(err, "build image")
	}

	fmt.Println("ISO created successfully:", output)
	return nil
}

func resourceInfoAction(c *cli.Context) error {
	if err := setupLogLevel(c); err != nil {
		return err
	}
	if c.NArg() != 1 {
		return errors.New("expected exactly one WIM file argument")
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Seek(c.Int64("offset"), io.SeekStart); err != nil {
		return errors.Wrapf(err, "seek to offset %d", c.Int64("offset"))
	}
	info, err := wim.ReadResourceInfo(f)
	if err != nil {
		return err
	}

	out := c.App.Writer
	fmt.Fprintf(out, "compressed size: %d\n", info.Header.CompressedSize)
	fmt.Fprintf(out, "flags:           %s\n", info.Header.Flags)
	fmt.Fprintf(out, "offset:          %d\n", info.Header.FileOffset)
	fmt.Fprintf(out, "original size:   %d\n", info.Header.OriginalSize)
	fmt.Fprintf(out, "part number:     %d\n", info.PartNumber)
	fmt.Fprintf(out, "reference count: %d\n", info.RefCount)
	fmt.Fprintf(out, "hash:            %s\n", info.Hash.Digest())
	return nil
}

func logLevelFlag() cli.Flag {
	return &cli.StringFlag{Name: "log-level", Value: "info", Usage: "Set log level (panic, fatal, error, warn, info, debug, trace)", EnvVars: []string{"LOG_LEVEL"}}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "discimage",
		Usage: "Build ISO 9660/Joliet images and inspect WIM resource headers",
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Build an ISO 9660 image with a Joliet volume from a directory",
				Flags: []cli.Flag{
					logLevelFlag(),
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "Source directory", EnvVars: []string{"INPUT"}},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "output.iso", Usage: "Output image path", EnvVars: []string{"OUTPUT"}},
					&cli.StringSliceFlag{Name: "hide", Aliases: []string{"H"}, Usage: "File or directory name to mark hidden, may be repeated or comma separated"},
					&cli.StringFlag{Name: "config", TakesFile: true, Usage: "YAML options file", EnvVars: []string{"CONFIG"}},
					&cli.StringFlag{Name: "volume-id", Usage: "Primary volume identifier", EnvVars: []string{"VOLUME_ID"}},
					&cli.StringFlag{Name: "joliet-volume-id", Usage: "Joliet volume identifier", EnvVars: []string{"JOLIET_VOLUME_ID"}},
					&cli.StringFlag{Name: "publisher", Usage: "Publisher identifier of both volumes", EnvVars: []string{"PUBLISHER"}},
				},
				Action: buildAction,
			},
			{
				Name:      "resource-info",
				Usage:     "Decode the WIM resource info entry at an offset of a file",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					logLevelFlag(),
					&cli.Int64Flag{Name: "offset", Value: 0, Usage: "Byte offset of the entry in the file"},
				},
				Action: resourceInfoAction,
			},
		},
	}
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
