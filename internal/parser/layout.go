package parser

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"manual-spec-rag/internal/models"
)

type row struct {
	y         float64
	fragments []models.Fragment
}

// ReconstructPage orders a page's fragments into reading-order lines.
//
// A fragment joins the first existing row whose representative Y lies within tolerance,
// otherwise it starts a new row keyed by its own Y. Rows are searched in creation order, so a
// fragment within tolerance of two rows lands in the older one. Rows run top to bottom (larger Y
// first) and fragments left to right; fragments are joined with a double space so table columns
// stay visible downstream.
func ReconstructPage(page models.Page, tolerance float64) models.ReconstructedPage {
	var rows []*row
	for _, frag := range page.Fragments {
		if strings.TrimSpace(frag.Text) == "" {
			continue
		}
		var target *row
		for _, r := range rows {
			if math.Abs(r.y-frag.Y) < tolerance {
				target = r
				break
			}
		}
		if target == nil {
			target = &row{y: frag.Y}
			rows = append(rows, target)
		}
		target.fragments = append(target.fragments, frag)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].y > rows[j].y
	})

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		sort.SliceStable(r.fragments, func(i, j int) bool {
			return r.fragments[i].X < r.fragments[j].X
		})
		parts := make([]string, len(r.fragments))
		for i, f := range r.fragments {
			parts[i] = f.Text
		}
		lines = append(lines, strings.Join(parts, models.FragmentSeparator))
	}

	return models.ReconstructedPage{Number: page.Number, Lines: lines}
}

// ReconstructAll reconstructs pages concurrently. Output order matches input order.
func ReconstructAll(ctx context.Context, pages []models.Page, tolerance float64, concurrency int) ([]models.ReconstructedPage, error) {
	out := make([]models.ReconstructedPage, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = ReconstructPage(pages[i], tolerance)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug().Int("pages", len(out)).Msg("Reconstructed page layout")
	return out, nil
}
