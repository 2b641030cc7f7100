// Command gencorpus regenerates the golden outputs for the fixture
// programs under testdata/corpus: every .fs file is evaluated on its
// own isolated interpreter, concurrently, and whatever it writes to
// the output sink becomes the sibling .out file the end-to-end corpus
// test compares against.
//
// Run it from the repository root after changing kernel or primitive
// semantics on purpose:
//
//	go run ./scripts/gencorpus
package main

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	forthcore "github.com/arvidholm/forthcore"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	matches, err := filepath.Glob(filepath.Join("testdata", "corpus", "*.fs"))
	if err != nil {
		log.Fatal(err)
	}
	if len(matches) == 0 {
		log.Fatal("no fixture programs under testdata/corpus")
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, name := range matches {
		name := name
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(name)
			if err != nil {
				return err
			}

			var out bytes.Buffer
			vm, err := forthcore.New(
				forthcore.WithOutput(&out),
				forthcore.WithErrorOutput(os.Stderr),
			)
			if err != nil {
				return err
			}
			defer vm.Free()
			if err := vm.Eval(string(src)); err != nil {
				return err
			}

			outName := name[:len(name)-len(".fs")] + ".out"
			if err := os.WriteFile(outName, out.Bytes(), 0o644); err != nil {
				return err
			}
			log.Printf("%s: %d bytes", outName, out.Len())
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.Fatal(err)
	}
}
