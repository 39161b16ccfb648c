package pool

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
)

type categoryCounters struct {
	hits, misses, created uint64
}

type counters struct {
	allocations, hits, misses, created, evictions, destroyed, failures uint64

	perCategory map[Category]*categoryCounters
}

func (c *counters) category(category Category) *categoryCounters {
	if c.perCategory == nil {
		c.perCategory = make(map[Category]*categoryCounters)
	}
	cc, ok := c.perCategory[category]
	if !ok {
		cc = &categoryCounters{}
		c.perCategory[category] = cc
	}
	return cc
}

// CategoryStats describes one category at the time of the snapshot.
type CategoryStats struct {
	Category Category
	Free     int
	InUse    int
	Bytes    uint64
	Hits     uint64
	Misses   uint64
	Created  uint64
}

// Stats is a snapshot of pool counters.
type Stats struct {
	// Allocations counts every Allocate request accepted by an open pool.
	Allocations uint64
	// Hits counts allocations served from a free list.
	Hits uint64
	// Misses counts allocations that needed a new buffer.
	Misses uint64
	// Created counts buffers created by the backend, warm-up included.
	Created uint64
	// Evictions counts free buffers destroyed by Cleanup.
	Evictions uint64
	// Destroyed counts every buffer destroyed, for any reason.
	Destroyed uint64
	// Failures counts allocations that returned an error after passing validation.
	Failures uint64

	LiveBytes   uint64
	MemoryLimit uint64
	Buffers     int

	Categories []CategoryStats
}

// HitRate returns the fraction of allocations served from a free list.
func (s Stats) HitRate() float64 {
	if s.Allocations == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Allocations)
}

func (p *poolImpl) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		Allocations: p.stats.allocations,
		Hits:        p.stats.hits,
		Misses:      p.stats.misses,
		Created:     p.stats.created,
		Evictions:   p.stats.evictions,
		Destroyed:   p.stats.destroyed,
		Failures:    p.stats.failures,
		LiveBytes:   p.liveBytes,
		MemoryLimit: p.config.MemoryLimit,
		Buffers:     len(p.owned),
	}

	byCategory := make(map[Category]*CategoryStats)
	for _, category := range Categories() {
		cs := &CategoryStats{Category: category, Free: len(p.free[category])}
		if cc, ok := p.stats.perCategory[category]; ok {
			cs.Hits, cs.Misses, cs.Created = cc.hits, cc.misses, cc.created
		}
		byCategory[category] = cs
	}
	for _, b := range p.owned {
		cs := byCategory[b.category]
		cs.Bytes += b.size
		if b.inUse.Load() {
			cs.InUse++
		}
	}
	for _, category := range Categories() {
		s.Categories = append(s.Categories, *byCategory[category])
	}
	return s
}

func (p *poolImpl) StatisticsReport() string {
	s := p.Stats()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Category", "Free", "In use", "Memory", "Hits", "Misses"})
	for _, cs := range s.Categories {
		table.Append([]string{
			cs.Category.String(),
			fmt.Sprintf("%d", cs.Free),
			fmt.Sprintf("%d", cs.InUse),
			fmtBytes(cs.Bytes),
			fmt.Sprintf("%d", cs.Hits),
			fmt.Sprintf("%d", cs.Misses),
		})
	}
	table.Append([]string{" ", " ", " ", " ", " ", " "})
	table.Append([]string{"evictions", fmt.Sprintf("%d", s.Evictions), "destroyed", fmt.Sprintf("%d", s.Destroyed), "failures", fmt.Sprintf("%d", s.Failures)})
	table.SetFooter([]string{
		"Total",
		fmt.Sprintf("%d buffers", s.Buffers),
		fmt.Sprintf("%.0f%% hit", s.HitRate()*100),
		fmtBytes(s.LiveBytes),
		"limit",
		fmtBytes(s.MemoryLimit),
	})

	table.Render()
	return buf.String()
}

// fmtBytes formats a byte count with a binary unit.
func fmtBytes(n uint64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
