package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gregLibert/libembedded/pkg/layout"
)

type options struct {
	layoutsPath string
	layoutName  string
	value       string
	encode      string
	frameHex    string
	list        bool
	interactive bool
}

func parseFlags(args []string) (options, error) {
	var opts options

	fs := flag.NewFlagSet("libembedded", flag.ContinueOnError)
	fs.StringVar(&opts.layoutsPath, "layouts", "layouts.yaml", "YAML file describing the record layouts")
	fs.StringVar(&opts.layoutName, "layout", "", "layout used by -value and -encode")
	fs.StringVar(&opts.value, "value", "", "raw value to decode (0x.., 0b.. or decimal)")
	fs.StringVar(&opts.encode, "encode", "", "comma separated name=value fields to encode")
	fs.StringVar(&opts.frameHex, "frame", "", "hex encoded BER-TLV frame to decode")
	fs.BoolVar(&opts.list, "list", false, "list the layouts and exit")
	fs.BoolVar(&opts.interactive, "i", false, "start an interactive prompt")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if (opts.value != "" || opts.encode != "") && opts.layoutName == "" {
		return opts, errors.New("-value and -encode need -layout")
	}
	return opts, nil
}

// run executes the non-interactive part of the command line.
func run(out io.Writer, set *layout.Set, opts options) error {
	ran := false

	if opts.list {
		listLayouts(out, set)
		ran = true
	}
	if opts.value != "" {
		if err := decodeValue(out, set, opts.layoutName, opts.value); err != nil {
			return err
		}
		ran = true
	}
	if opts.encode != "" {
		if err := encodeRecord(out, set, opts.layoutName, splitAssignments(opts.encode)); err != nil {
			return err
		}
		ran = true
	}
	if opts.frameHex != "" {
		if err := decodeFrame(out, set, opts.frameHex); err != nil {
			return err
		}
		ran = true
	}

	if !ran && !opts.interactive {
		return errors.New("nothing to do: use -value, -encode, -frame, -list or -i")
	}
	return nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("Error: %v", err)
	}

	set, err := layout.Load(opts.layoutsPath)
	if err != nil {
		log.Fatalf("Error loading layouts: %v", err)
	}

	if err := run(os.Stdout, set, opts); err != nil {
		log.Fatalf("Error: %v", err)
	}

	if opts.interactive {
		if err := runInteractive(set); err != nil {
			log.Fatalf("Error: %v", err)
		}
	}
}
