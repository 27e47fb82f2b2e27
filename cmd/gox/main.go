package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/bodgit/gox"
	"github.com/bodgit/gox/glb"
	"github.com/bodgit/gox/obj"
	"github.com/bodgit/gox/ply"
	"github.com/bodgit/gox/vox"
	"github.com/bodgit/gox/voxel"
	"github.com/urfave/cli/v2"
)

const defaultDB = "gox.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func newCodec(c *cli.Context, logger *log.Logger) *gox.Codec {
	x := gox.New(logger)
	x.Workers = c.Int("workers")
	return x
}

// load decodes file. Errors that still leave a usable container are logged.
func load(x *gox.Codec, logger *log.Logger, file string) ([]byte, *gox.Container, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, err
	}

	container, err := x.Decode(b)
	if container == nil {
		return nil, nil, err
	}
	if err != nil {
		logger.Printf("%s: %v\n", file, err)
	}

	return b, container, nil
}

func reconstruct(x *gox.Codec, logger *log.Logger, container *gox.Container) []gox.LayerVoxels {
	voxels, err := x.Voxels(container)
	if err != nil {
		logger.Println(err)
	}
	return voxels
}

// findLayer matches arg against the layer index first, then the layer name.
func findLayer(voxels []gox.LayerVoxels, arg string) (*voxel.Map, error) {
	if i, err := strconv.Atoi(arg); err == nil && i >= 0 && i < len(voxels) {
		return voxels[i].Voxels, nil
	}
	for _, lv := range voxels {
		if lv.Layer.Name() == arg {
			return lv.Voxels, nil
		}
	}
	return nil, fmt.Errorf("no layer %q", arg)
}

// layerAction exports FILE [LAYER] OUTPUT. Without LAYER the visible layers
// are flattened into one model.
func layerAction(write func(string, *voxel.Map) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < 2 {
			cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
		}

		logger := newLogger(c)
		x := newCodec(c, logger)

		_, container, err := load(x, logger, c.Args().Get(0))
		if err != nil {
			return cli.Exit(err, 1)
		}

		voxels := reconstruct(x, logger, container)

		m := gox.Flatten(voxels)
		output := c.Args().Get(1)
		if c.NArg() > 2 {
			if m, err = findLayer(voxels, c.Args().Get(1)); err != nil {
				return cli.Exit(err, 1)
			}
			output = c.Args().Get(2)
		}

		if err := write(output, m); err != nil {
			return cli.Exit(err, 1)
		}

		return nil
	}
}

func writeFile(file string, m *voxel.Map, encode func(io.Writer, *voxel.Map) error) (err error) {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return encode(f, m)
}

func info(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)
	x := newCodec(c, logger)

	b, err := os.ReadFile(c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}

	container, err := x.Decode(b)
	if container == nil {
		return cli.Exit(err, 1)
	}

	fmt.Printf("Version: %d\n\n", container.Version)

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTYPE\tLENGTH\tCRC\tPAYLOAD")
	for i, ch := range container.Chunks {
		data, _ := ch.Payload.MarshalBinary()
		fmt.Fprintf(w, "%d\t%q\t%d\t%08x\t%T\n", i, ch.Type(), len(data), ch.CRC, ch.Payload)
	}
	if err := w.Flush(); err != nil {
		return cli.Exit(err, 1)
	}

	fmt.Printf("\nLayers: %d, materials: %d, cameras: %d, atlases: %d\n", len(container.Layers()), len(container.Materials()), len(container.Cameras()), len(container.Atlases()))

	if err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func export(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)
	x := newCodec(c, logger)

	_, container, err := load(x, logger, c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}

	b, err := json.MarshalIndent(gox.Export(container, reconstruct(x, logger, container)), "", "  ")
	if err != nil {
		return cli.Exit(err, 1)
	}

	if _, err := fmt.Println(string(b)); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func atlases(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)
	x := newCodec(c, logger)

	_, container, err := load(x, logger, c.Args().Get(0))
	if err != nil {
		return cli.Exit(err, 1)
	}

	dir := c.Args().Get(1)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return cli.Exit(err, 1)
	}

	for i, a := range container.Atlases() {
		if a == nil {
			logger.Printf("Skipping unreadable atlas %d\n", i)
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("atlas-%04d.png", i)), a.Data, 0o644); err != nil {
			return cli.Exit(err, 1)
		}
	}

	return nil
}

func importText(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	f, err := os.Open(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer f.Close()

	m, err := voxel.ReadText(f)
	if err != nil {
		return cli.Exit(err, 1)
	}

	container := gox.NewContainer()
	if _, err := container.AddLayer(c.String("name"), m); err != nil {
		return cli.Exit(err, 1)
	}

	b, err := container.MarshalBinary()
	if err != nil {
		return cli.Exit(err, 1)
	}

	if err := os.WriteFile(c.Args().Get(1), b, 0o644); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func index(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)
	x := newCodec(c, logger)

	cat, err := gox.NewCatalog(c.String("db"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer cat.Close()

	var errs []error
	for _, file := range c.Args().Slice() {
		b, container, err := load(x, logger, file)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", file, err))
			continue
		}

		if err := cat.Import(filepath.Base(file), b, container, reconstruct(x, logger, container)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", file, err))
			continue
		}
		logger.Printf("Indexed %s\n", file)
	}

	if err := errors.Join(errs...); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func list(c *cli.Context) error {
	cat, err := gox.NewCatalog(c.String("db"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer cat.Close()

	files, err := cat.Files()
	if err != nil {
		return cli.Exit(err, 1)
	}
	for _, file := range files {
		fmt.Println(file)
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "gox"
	app.Usage = "Goxel .gox file utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"GOX_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
		},
		&cli.IntFlag{
			Name:    "workers",
			EnvVars: []string{"GOX_WORKERS"},
			Value:   4,
			Usage:   "number of layers to reconstruct concurrently",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "info",
			Usage:     "List the chunks of a file",
			ArgsUsage: "FILE",
			Action:    info,
		},
		{
			Name:      "json",
			Usage:     "Dump a file and its voxels as JSON",
			ArgsUsage: "FILE",
			Action:    export,
		},
		{
			Name:      "txt",
			Usage:     "Export the visible layers or one layer as text, one voxel per line",
			ArgsUsage: "FILE [LAYER] OUTPUT",
			Action: layerAction(func(file string, m *voxel.Map) error {
				return writeFile(file, m, voxel.WriteText)
			}),
		},
		{
			Name:      "vox",
			Usage:     "Export the visible layers or one layer as a MagicaVoxel model",
			ArgsUsage: "FILE [LAYER] OUTPUT",
			Action: layerAction(func(file string, m *voxel.Map) error {
				return writeFile(file, m, vox.Encode)
			}),
		},
		{
			Name:      "glb",
			Usage:     "Export the visible layers or one layer as binary glTF",
			ArgsUsage: "FILE [LAYER] OUTPUT",
			Action:    layerAction(glb.Save),
		},
		{
			Name:      "obj",
			Usage:     "Export the visible layers or one layer as a Wavefront mesh",
			ArgsUsage: "FILE [LAYER] OUTPUT",
			Action: layerAction(func(file string, m *voxel.Map) error {
				return writeFile(file, m, obj.Encode)
			}),
		},
		{
			Name:      "ply",
			Usage:     "Export the visible layers or one layer as a PLY mesh",
			ArgsUsage: "FILE [LAYER] OUTPUT",
			Action: layerAction(func(file string, m *voxel.Map) error {
				return writeFile(file, m, ply.Encode)
			}),
		},
		{
			Name:      "atlas",
			Usage:     "Extract every block atlas as a PNG",
			ArgsUsage: "FILE DIRECTORY",
			Action:    atlases,
		},
		{
			Name:      "import",
			Usage:     "Build a file from a text voxel list",
			ArgsUsage: "INPUT OUTPUT",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "name",
					Value: "Layer.1",
					Usage: "layer name",
				},
			},
			Action: importText,
		},
		{
			Name:      "index",
			Usage:     "Add files to the catalog",
			ArgsUsage: "FILE...",
			Action:    index,
		},
		{
			Name:   "list",
			Usage:  "List the files in the catalog",
			Action: list,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
