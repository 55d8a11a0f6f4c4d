package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/wbrown/janus-traversal/traversal"
	"github.com/wbrown/janus-traversal/traversal/annotations"
	"github.com/wbrown/janus-traversal/traversal/pipeline"
	"github.com/wbrown/janus-traversal/traversal/strategy"
)

func main() {
	var engineName string
	var verbose bool
	var help bool
	var inputPath string
	var emitJSON bool

	flag.StringVar(&engineName, "engine", "STANDARD", "engine tag: STANDARD or COMPUTER")
	flag.BoolVar(&verbose, "verbose", false, "verbose mode (show strategy annotations)")
	flag.BoolVar(&help, "h", false, "show help")
	flag.StringVar(&inputPath, "in", "", "optimize a serialized pipeline from a file ('-' for stdin)")
	flag.BoolVar(&emitJSON, "json", false, "print the optimized pipeline in its serialized form")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Applies traversal strategies to a pipeline and shows the rewrite.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                        # Optimize the built-in demo pipeline\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -engine COMPUTER       # Same, under the partitioned engine\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -in plan.json -json    # Optimize a serialized pipeline\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -verbose               # Show per-strategy annotations\n", os.Args[0])
	}
	flag.Parse()

	if help {
		flag.Usage()
		os.Exit(0)
	}

	engine, ok := pipeline.ParseEngine(engineName)
	if !ok {
		log.Fatalf("Unknown engine tag: %s", engineName)
	}

	p, err := loadPipeline(inputPath)
	if err != nil {
		log.Fatalf("Failed to load pipeline: %v", err)
	}

	var handler annotations.Handler
	if verbose {
		formatter := annotations.NewOutputFormatter(os.Stderr)
		handler = formatter.Handle
	}
	collector := annotations.NewCollector(handler)

	renderer := annotations.NewPipelineRenderer()
	fmt.Println("Before:")
	fmt.Println(renderer.Render(p))

	if err := strategy.Apply(p, engine, strategy.Default(), strategy.Options{Collector: collector}); err != nil {
		log.Fatalf("Apply failed: %v", err)
	}

	fmt.Println("After:")
	fmt.Println(renderer.Render(p))

	if emitJSON {
		data, err := pipeline.Encode(p)
		if err != nil {
			log.Fatalf("Failed to serialize pipeline: %v", err)
		}
		fmt.Println(string(data))
	}
}

func loadPipeline(path string) (*pipeline.Pipeline, error) {
	if path == "" {
		return demoPipeline(), nil
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return pipeline.Decode(data)
}

// demoPipeline builds `out identity count is(lte, 3)` with a nested
// has-traversal, enough to watch several strategies fire at once.
func demoPipeline() *pipeline.Pipeline {
	p := pipeline.New()
	p.MustAppend(pipeline.Out("knows"))
	p.MustAppend(pipeline.Identity())
	has := p.MustAppend(pipeline.HasTraversal(false))

	child := pipeline.New()
	child.MustAppend(pipeline.OutEdges("created"))
	child.MustAppend(pipeline.Count())
	child.MustAppend(pipeline.Is(traversal.Eq(traversal.Int(0))))
	if err := p.AttachChild(has, child); err != nil {
		panic(err)
	}

	p.MustAppend(pipeline.Count())
	p.MustAppend(pipeline.Is(traversal.Lte(traversal.Int(3))))
	return p
}
