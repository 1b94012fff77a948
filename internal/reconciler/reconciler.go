package reconciler

import (
	"context"

	"github.com/prompthash/marketplace/internal/market"
	"github.com/prompthash/marketplace/internal/platform/node"
)

// Reconciler sweeps every record and compares the recorded owner against the
// identity ledger. Transfers made directly on that ledger bypass the
// marketplace, so the two views can drift; the sweep surfaces the drift in
// the log without mutating anything.
type Reconciler struct {
	market *market.Market
}

func New(m *market.Market) *Reconciler {
	return &Reconciler{
		market: m,
	}
}

// Run performs one full sweep. Satisfies scheduler.PeriodicProcessInterface.
func (r *Reconciler) Run(ctx context.Context) {
	next, err := r.market.NextID(ctx)
	if err != nil {
		node.LogError(ctx, "Reconciler failed to read record count : %s", err)
		return
	}

	var drifted, burned int
	for id := uint64(0); id < next; id++ {
		report, err := r.market.CheckOwner(ctx, id)
		if err != nil {
			node.LogError(ctx, "Reconciler failed on record %d : %s", id, err)
			continue
		}

		if report.Burned {
			burned++
			continue
		}
		if !report.InSync {
			drifted++
			node.LogWarn(ctx, "Record %d owner drift : recorded %s, holder %s",
				id, report.Recorded, report.Holder)
		}
	}

	if drifted > 0 || burned > 0 {
		node.LogWarn(ctx, "Reconciler swept %d records : %d drifted, %d burned",
			next, drifted, burned)
	} else {
		node.LogVerbose(ctx, "Reconciler swept %d records : all in sync", next)
	}
}
