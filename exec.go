package gifpress

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gifpress/gifpress/utils"
	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// memPerWorker is the rough memory budget one worker needs: a batch of
// coalesced GIF frames easily grows to hundreds of megabytes.
const memPerWorker = 512 << 20

// Ops holds the source/destination the command line operates on.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int
}

// result holds the relevant information about one compressed animation.
type result struct {
	path        string
	orig, final int64
	err         error
}

// Execute runs the compression over a single file, an URL, a pipe or a whole
// directory tree, depending on what the source argument points at.
func (p *Processor) Execute(op *Ops) {
	var err error

	defaultMsg := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ GIFPRESS", utils.StatusMessage),
		utils.DecorateText("⇢ compressing the animation (be patient, it may take a while)...", utils.DefaultMessage),
	)
	p.Spinner = utils.NewSpinner(defaultMsg, time.Millisecond*80, true)

	// Check if the source path is a local file or an URL.
	if utils.IsValidUrl(op.Src) {
		src, err := utils.DownloadImage(op.Src)
		if src != nil {
			defer os.Remove(src.Name())
		}
		if err != nil {
			log.Fatalf(
				utils.DecorateText("Failed to load the source animation: %v", utils.ErrorMessage),
				utils.DecorateText(err.Error(), utils.DefaultMessage),
			)
		}
		op.Src = src.Name()
	}

	var fs os.FileInfo
	if op.Src == op.PipeName {
		fs, err = os.Stdin.Stat()
	} else {
		fs, err = os.Stat(op.Src)
	}
	if err != nil {
		log.Fatalf(
			utils.DecorateText("Failed to load the source animation: %v", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
	}

	now := time.Now()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		if err := op.batch(p); err != nil {
			fmt.Fprint(os.Stderr, utils.DecorateText(err.Error(), utils.ErrorMessage))
		}

	case mode.IsRegular() || mode&os.ModeNamedPipe != 0: // regular files or pipe names
		if ext := filepath.Ext(op.Dst); !strings.EqualFold(ext, ".gif") && op.Dst != op.PipeName {
			log.Fatalf(utils.DecorateText(fmt.Sprintf("%v file type not supported", ext), utils.ErrorMessage))
		}

		res := op.process(p, op.Src, op.Dst)
		op.printOpStatus(res)
	}

	fmt.Fprintf(os.Stderr, "\nExecution time: %s\n",
		utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
}

// batch compresses every GIF found under the source directory concurrently,
// bounded by the worker count, and writes the results under the destination
// directory keeping the base names.
func (op *Ops) batch(p *Processor) error {
	if _, err := os.Stat(op.Dst); err != nil {
		if err := os.Mkdir(op.Dst, 0755); err != nil {
			log.Fatalf(
				utils.DecorateText("Unable to get dir stats: %v\n", utils.ErrorMessage),
				utils.DecorateText(err.Error(), utils.DefaultMessage),
			)
		}
	}

	done := make(chan interface{})
	defer close(done)

	paths, errc := walkDir(done, op.Src, ".gif")

	g := new(errgroup.Group)
	g.SetLimit(boundWorkers(op.Workers))

	results := make(chan result)
	go func() {
		for src := range paths {
			src := src
			g.Go(func() error {
				// Every worker gets its own processor so the probed
				// encoder and its decode cache are not shared.
				proc := *p
				proc.Spinner = nil

				dst := filepath.Join(op.Dst, filepath.Base(src))
				orig, final, err := proc.Compress(src, dst)
				results <- result{path: dst, orig: orig, final: final, err: err}
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	for res := range results {
		op.printOpStatus(res)
	}

	return <-errc
}

// process compresses a single source, be it a regular file or a pipe.
func (op *Ops) process(p *Processor, in, out string) result {
	// Capture the CTRL-C signal and restore back the cursor visibility.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		p.Spinner.RestoreCursor()
		if out != op.PipeName {
			os.Remove(out)
		}
		os.Exit(1)
	}()

	p.Spinner.Start()
	defer p.Spinner.Stop()

	// Pipes have no stable path and no reportable sizes; the stream is
	// materialized to temp files underneath Process.
	if in == op.PipeName || out == op.PipeName {
		if in == op.PipeName && term.IsTerminal(int(os.Stdin.Fd())) {
			return result{path: out, err: errors.New("`-` should be used with a pipe for stdin")}
		}
		if out == op.PipeName && term.IsTerminal(int(os.Stdout.Fd())) {
			return result{path: out, err: errors.New("`-` should be used with a pipe for stdout")}
		}
		var src *os.File = os.Stdin
		if in != op.PipeName {
			f, err := os.Open(in)
			if err != nil {
				return result{path: out, err: fmt.Errorf("unable to open the source file: %w", err)}
			}
			defer f.Close()
			src = f
		}
		var dst *os.File = os.Stdout
		if out != op.PipeName {
			f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
			if err != nil {
				return result{path: out, err: fmt.Errorf("unable to create the destination file: %w", err)}
			}
			defer f.Close()
			dst = f
		}
		return result{path: out, err: p.Process(src, dst)}
	}

	orig, final, err := p.Compress(in, out)
	return result{path: out, orig: orig, final: final, err: err}
}

// printOpStatus displays the relevant information about one compression run.
func (op *Ops) printOpStatus(res result) {
	if res.err != nil {
		fmt.Fprintf(os.Stderr,
			utils.DecorateText("\nError compressing the animation: %s", utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", res.err.Error()), utils.DefaultMessage),
		)
		os.Exit(1)
	}
	if res.path == op.PipeName {
		return
	}

	ratio := 0.0
	if res.orig > 0 {
		ratio = (1 - float64(res.final)/float64(res.orig)) * 100
	}
	fmt.Fprintf(os.Stderr, "\n%s %s %s %s (%s, saved %.2f%%)\n",
		utils.DecorateText("⚡ GIFPRESS", utils.StatusMessage),
		utils.DecorateText("⇢ saved as:", utils.DefaultMessage),
		utils.DecorateText(filepath.Base(res.path), utils.SuccessMessage),
		utils.DefaultColor+utils.FormatSize(res.final),
		utils.FormatSize(res.orig), ratio,
	)
}

// boundWorkers picks the degree of parallelism for batch runs. Besides the
// CPU count, the available memory caps the worker count, since a worker
// holds a whole coalesced frame sequence in memory.
func boundWorkers(requested int) int {
	if requested > 0 {
		return utils.Min(requested, maxWorkers)
	}

	workers := runtime.NumCPU()
	if vm, err := mem.VirtualMemory(); err == nil {
		byMem := utils.Max(1, int(vm.Available/memPerWorker))
		workers = utils.Min(workers, byMem)
	}
	return utils.Clamp(workers, 1, maxWorkers)
}

// walkDir starts a new goroutine to walk the specified directory tree in a
// recursive manner and sends the path of each matching file to a new
// channel. It finishes in case the done channel is getting closed.
func walkDir(done <-chan interface{}, src, ext string) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(f.Name()), ext) {
				return nil
			}

			select {
			case <-done:
				return errors.New("directory walk cancelled")
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}
