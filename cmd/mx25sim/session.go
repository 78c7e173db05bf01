package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/moffa90/go-mx25r/flash"
	"github.com/moffa90/go-mx25r/flashsim"
)

// session is one initialized device over the image file.
type session struct {
	opts *options
	chip *flashsim.Chip
	dev  *flash.Device
}

func openSession(ctx context.Context, opts *options, out io.Writer) (*session, error) {
	logger := newLogger(out, opts.verbose)

	var simOpts []flashsim.Option
	if opts.trace {
		simOpts = append(simOpts, flashsim.WithLogger(newLogger(out, true)))
	}
	chip := flashsim.New(simOpts...)

	if err := loadImage(chip, opts.image); err != nil {
		return nil, err
	}

	devOpts := []flash.Option{
		flash.WithBusClock(opts.hclk),
		flash.WithLogger(logger),
	}
	if opts.progress {
		devOpts = append(devOpts, flash.WithProgressCallback(newProgressPrinter(out)))
	}
	dev := flash.New(chip, devOpts...)

	if err := dev.Init(ctx); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	return &session{opts: opts, chip: chip, dev: dev}, nil
}

// close releases the device and, when save is set, writes the array back
// to the image file.
func (s *session) close(ctx context.Context, save bool) error {
	if err := s.dev.Deinit(ctx); err != nil {
		return fmt.Errorf("deinit: %w", err)
	}
	if !save {
		return nil
	}
	return saveImage(s.chip, s.opts.image)
}

func loadImage(chip *flashsim.Chip, path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	return chip.Load(f)
}

func saveImage(chip *flashsim.Chip, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	if err := chip.Save(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// logger implements flash.Logger on top of the standard logger.
type logger struct {
	logger *log.Logger
	debug  bool
}

func newLogger(out io.Writer, debug bool) *logger {
	return &logger{
		logger: log.New(out, "", log.LstdFlags),
		debug:  debug,
	}
}

func (l *logger) Debug(msg string, kv ...interface{}) {
	if l.debug {
		l.logger.Printf("[DEBUG] %s %v", msg, kv)
	}
}

func (l *logger) Info(msg string, kv ...interface{}) {
	if l.debug {
		l.logger.Printf("[INFO] %s %v", msg, kv)
	}
}

func (l *logger) Error(msg string, kv ...interface{}) {
	l.logger.Printf("[ERROR] %s %v", msg, kv)
}
