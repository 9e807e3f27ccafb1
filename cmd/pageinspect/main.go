// pageinspect dumps and benchmarks graphpage slotted-page images. Pages are
// read with the default geometry (64-bit vertex ids, 32-bit page ids and
// offsets, 16-bit slot offsets, no payloads); payload-carrying deployments
// need a build with their own types.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/infolab-go/graphpage/core/graph/adapter"
	"github.com/infolab-go/graphpage/core/graph/ridtable"
	"github.com/infolab-go/graphpage/core/storage/pagebuf"
	"github.com/infolab-go/graphpage/core/storage/slottedpage"
	"github.com/infolab-go/graphpage/pkg/logger"
	"github.com/infolab-go/graphpage/pkg/telemetry"
)

type defaultLayout = slottedpage.Layout[uint64, uint32, uint32, uint16, uint32, uint32, slottedpage.None, slottedpage.None]

func newDefaultLayout(pageSize int) (*defaultLayout, error) {
	return slottedpage.NewLayout[uint64, uint32, uint32, uint16, uint32, uint32, slottedpage.None, slottedpage.None](pageSize)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "pageinspect",
		Short: "Inspect graphpage slotted-page images",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		file     string
		pageSize int
		offset   int64
		logLevel string
	)
	rootCmd.PersistentFlags().IntVar(&pageSize, "page-size", 4096, "page size in bytes")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the footer, slots and adjacency lists of one page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dumpPage(file, pageSize, offset)
		},
	}
	dumpCmd.Flags().StringVar(&file, "file", "", "file holding page images")
	dumpCmd.Flags().Int64Var(&offset, "offset", 0, "byte offset of the page in the file")
	_ = dumpCmd.MarkFlagRequired("file")

	capacityCmd := &cobra.Command{
		Use:   "capacity",
		Short: "Print the geometry constants for a page size",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := newDefaultLayout(pageSize)
			if err != nil {
				return err
			}
			fmt.Printf("page size:              %d\n", l.PageSize())
			fmt.Printf("data section:           %d\n", l.DataSize())
			fmt.Printf("slot size:              %d\n", l.SlotSize())
			fmt.Printf("element size:           %d\n", l.ElemSize())
			fmt.Printf("max edges in head page: %d\n", l.MaxEdgesInHeadPage())
			fmt.Printf("max edges in ext page:  %d\n", l.MaxEdgesInExtPage())
			return nil
		},
	}

	var (
		benchPages  int
		benchDegree int
		metricsPort int
	)
	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Build synthetic pages through the pool and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.New(logger.Config{Level: logLevel, Format: "console"})
			if err != nil {
				return err
			}
			return runBench(log, pageSize, benchPages, benchDegree, metricsPort)
		},
	}
	benchCmd.Flags().IntVar(&benchPages, "pages", 1024, "number of pages to build")
	benchCmd.Flags().IntVar(&benchDegree, "degree", 8, "edges per vertex")
	benchCmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "expose prometheus metrics on this port (0 = off)")

	rootCmd.AddCommand(dumpCmd, capacityCmd, benchCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dumpPage(file string, pageSize int, offset int64) error {
	l, err := newDefaultLayout(pageSize)
	if err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, pageSize)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return fmt.Errorf("read page at offset %d: %w", offset, err)
	}
	r, err := slottedpage.NewReader(l, buf)
	if err != nil {
		return err
	}

	fmt.Printf("flags: %#x (sp=%v lp_head=%v lp_extended=%v)\n",
		uint32(r.Flags()), r.IsSP(), r.IsLPHead(), r.IsLPExtended())
	fmt.Printf("front: %d  rear: %d  empty: %v  slots: %d\n",
		r.Front(), r.Rear(), r.IsEmpty(), r.NumSlots())

	for i := 0; i < r.NumSlots(); i++ {
		s := r.Slot(i)
		fmt.Printf("slot %d: vertex=%d record_offset=%d", i, s.VertexID, s.RecordOffset)
		switch {
		case r.IsLPExtended():
			// No size prefix on extension pages; the in-page element count
			// is what front has advanced past.
			n := (int(r.Front()) - int(s.RecordOffset)) / l.ElemSize()
			fmt.Printf(" elements_in_page=%d\n", n)
			printElems(r.ListExt(s, n))
		case r.IsLPHead():
			total := int(r.ListSize(s))
			n := (int(r.Front()) - int(s.RecordOffset) - l.ListSizeLen()) / l.ElemSize()
			fmt.Printf(" total_list_size=%d elements_in_page=%d\n", total, n)
			printElems(r.List(s, n))
		default:
			n := int(r.ListSize(s))
			fmt.Printf(" list_size=%d\n", n)
			printElems(r.List(s, n))
		}
	}
	return nil
}

func printElems(elems []slottedpage.AdjElem[uint32, uint16, slottedpage.None]) {
	for j, e := range elems {
		fmt.Printf("  [%d] page=%d slot_offset=%d\n", j, e.PageID, e.SlotOffset)
	}
}

// runBench packs a synthetic uniform-degree graph into pool-backed pages:
// every vertex gets benchDegree edges to consecutive destinations, vertices
// fill each page until Scan refuses the next one.
func runBench(log *zap.Logger, pageSize, pages, degree, metricsPort int) error {
	tel, shutdown, err := telemetry.New(telemetry.Config{
		Enabled:        metricsPort > 0,
		ServiceName:    "pageinspect",
		PrometheusPort: metricsPort,
	})
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	l, err := newDefaultLayout(pageSize)
	if err != nil {
		return err
	}
	pool, err := pagebuf.NewPool(64, pageSize, log, tel.Meter, func(pagebuf.PageID, []byte) error {
		return nil // benchmark discards spilled pages
	})
	if err != nil {
		return err
	}

	perVertex := l.SlotSize() + l.ListSizeLen() + degree*l.ElemSize()
	perPage := l.DataSize() / perVertex
	if perPage == 0 {
		perPage = 1
	}
	counts := make([]int, pages)
	for i := range counts {
		counts[i] = perPage
	}
	table, err := ridtable.BuildTable[uint64](counts)
	if err != nil {
		return err
	}

	start := time.Now()
	var vertices, edges int
	for pid := 0; pid < pages; pid++ {
		frame, err := pool.Acquire(pagebuf.PageID(pid))
		if err != nil {
			return err
		}
		frame.Lock()
		b, err := slottedpage.NewBuilder(l, frame.Data())
		if err != nil {
			frame.Unlock()
			return err
		}
		b.Format(slottedpage.FlagSP)

		base := uint64(table[pid].StartVID)
		for v := 0; v < perPage; v++ {
			ok, capacity := b.Scan()
			if !ok || capacity < degree {
				break
			}
			vid := base + uint64(v)
			edgeList := make([]adapter.Edge[uint64, slottedpage.None], degree)
			for d := range edgeList {
				edgeList[d] = adapter.Edge[uint64, slottedpage.None]{
					Src: vid,
					Dst: (vid + uint64(d) + 1) % (uint64(pages) * uint64(perPage)),
				}
			}
			elems, err := adapter.EdgesToAdjElems[uint32, uint16](edgeList, table)
			if err != nil {
				frame.Unlock()
				return err
			}
			idx := adapter.VertexToSlot(adapter.Vertex[uint64, slottedpage.None]{ID: vid}, b)
			b.AddListSP(idx, elems)
			vertices++
			edges += degree
		}
		frame.MarkDirty(true)
		frame.Unlock()
		if err := pool.Release(pagebuf.PageID(pid)); err != nil {
			return err
		}
	}

	elapsed := time.Since(start)
	log.Info("bench complete",
		zap.Int("pages", pages),
		zap.Int("vertices", vertices),
		zap.Int("edges", edges),
		zap.Duration("elapsed", elapsed),
		zap.Float64("edges_per_sec", float64(edges)/elapsed.Seconds()))
	return pool.FlushAll()
}
