// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command qbench compares the throughput of the ubq queue designs
// under a fixed producer/consumer load, with the LENSHOOD bounded MPMC
// ring buffer as an ecosystem baseline. It prints an ops/sec table
// and optionally renders the result as an HTML bar chart.
//
// Usage:
//
//	qbench [-producers 4] [-consumers 4] [-duration 1s] [-batch 1024] [-html out.html]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	lfring "github.com/LENSHOOD/go-lock-free-ring-buffer"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"golang.org/x/sync/errgroup"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/ubq"
)

type result struct {
	name string
	note string
	pops int64
}

func main() {
	producers := flag.Int("producers", 4, "producer goroutines")
	consumers := flag.Int("consumers", 4, "consumer goroutines")
	duration := flag.Duration("duration", time.Second, "measure interval per queue")
	batch := flag.Int("batch", ubq.DefaultBatchSize, "BLQueue slots per node / baseline ring capacity")
	html := flag.String("html", "", "write an HTML bar chart to this path")
	flag.Parse()

	if *producers < 1 || *consumers < 1 {
		log.Fatal("qbench: need at least one producer and one consumer")
	}
	if *producers+*consumers > ubq.MaxThreads {
		log.Fatalf("qbench: producers+consumers must not exceed %d", ubq.MaxThreads)
	}

	results := []result{
		{name: "SimpleQueue", pops: runShared(ubq.NewSimple(), *producers, *consumers, *duration)},
		{name: "RingsQueue", note: "1P/1C", pops: runShared(ubq.NewRings(*batch), 1, 1, *duration)},
		{name: "LLQueue", pops: runShared(ubq.NewLL(*producers+*consumers), *producers, *consumers, *duration)},
		{name: "BLQueue", pops: runShared(ubq.NewBL(*producers+*consumers, *batch), *producers, *consumers, *duration)},
		{name: "lfring (bounded)", note: "baseline", pops: runBaseline(*batch, *producers, *consumers, *duration)},
	}

	fmt.Printf("%dP/%dC, %v per queue\n\n", *producers, *consumers, *duration)
	fmt.Printf("%-18s %12s %10s\n", "queue", "pops/s", "note")
	for _, r := range results {
		fmt.Printf("%-18s %12.0f %10s\n", r.name, float64(r.pops)/duration.Seconds(), r.note)
	}

	if *html != "" {
		if err := render(*html, results, *duration, *producers, *consumers); err != nil {
			log.Fatalf("qbench: render: %v", err)
		}
		fmt.Printf("\nchart written to %s\n", *html)
	}
}

// runShared measures successful pops on q for the given interval.
// Producers and consumers register disjoint thread ids.
func runShared(q ubq.Shared, producers, consumers int, d time.Duration) int64 {
	defer q.Close()

	var stop atomix.Bool
	var pops atomix.Int64
	var g errgroup.Group

	for p := range producers {
		h := q.Register(p)
		g.Go(func() error {
			for !stop.Load() {
				h.Push(1)
			}
			return nil
		})
	}
	for c := range consumers {
		h := q.Register(producers + c)
		g.Go(func() error {
			n := int64(0)
			for !stop.Load() {
				if h.Pop() != ubq.Empty {
					n++
				}
			}
			pops.Add(n)
			return nil
		})
	}

	time.Sleep(d)
	stop.Store(true)
	_ = g.Wait()
	return pops.Load()
}

// runBaseline measures the LENSHOOD bounded MPMC ring under the same
// load shape. Full offers and empty polls count as retries, not ops.
func runBaseline(capacity, producers, consumers int, d time.Duration) int64 {
	rb := lfring.New[uint64](lfring.NodeBased, uint64(capacity))

	var stop atomix.Bool
	var pops atomix.Int64
	var g errgroup.Group

	for range producers {
		g.Go(func() error {
			for !stop.Load() {
				rb.Offer(1)
			}
			return nil
		})
	}
	for range consumers {
		g.Go(func() error {
			n := int64(0)
			for !stop.Load() {
				if _, ok := rb.Poll(); ok {
					n++
				}
			}
			pops.Add(n)
			return nil
		})
	}

	time.Sleep(d)
	stop.Store(true)
	_ = g.Wait()
	return pops.Load()
}

// render writes the results as a go-echarts bar chart.
func render(path string, results []result, d time.Duration, producers, consumers int) error {
	names := make([]string, 0, len(results))
	data := make([]opts.BarData, 0, len(results))
	for _, r := range results {
		names = append(names, r.name)
		data = append(data, opts.BarData{Value: float64(r.pops) / d.Seconds() / 1e6})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Queue throughput",
			Subtitle: fmt.Sprintf("%dP/%dC, %v per queue, Mops/s", producers, consumers, d),
		}),
	)
	bar.SetXAxis(names).AddSeries("Mops/s", data)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return bar.Render(f)
}
