package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/teamboard/pkg/domain"
)

// Combine returns hooks that call every non-nil callback of each set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks

	var onFilter []func(context.Context, *domain.FilterEvent)
	var onOpen, onClose []func(context.Context, *domain.PickerEvent)
	var onTeam []func(context.Context, *domain.TeamEvent)

	for _, s := range sets {
		if s.OnFilter != nil {
			onFilter = append(onFilter, s.OnFilter)
		}
		if s.OnPickerOpen != nil {
			onOpen = append(onOpen, s.OnPickerOpen)
		}
		if s.OnPickerClose != nil {
			onClose = append(onClose, s.OnPickerClose)
		}
		if s.OnTeamChange != nil {
			onTeam = append(onTeam, s.OnTeamChange)
		}
	}

	if len(onFilter) > 0 {
		out.OnFilter = func(ctx context.Context, e *domain.FilterEvent) {
			for _, fn := range onFilter {
				fn(ctx, e)
			}
		}
	}
	if len(onOpen) > 0 {
		out.OnPickerOpen = func(ctx context.Context, e *domain.PickerEvent) {
			for _, fn := range onOpen {
				fn(ctx, e)
			}
		}
	}
	if len(onClose) > 0 {
		out.OnPickerClose = func(ctx context.Context, e *domain.PickerEvent) {
			for _, fn := range onClose {
				fn(ctx, e)
			}
		}
	}
	if len(onTeam) > 0 {
		out.OnTeamChange = func(ctx context.Context, e *domain.TeamEvent) {
			for _, fn := range onTeam {
				fn(ctx, e)
			}
		}
	}
	return out
}

// LogHooks logs picker and team lifecycle events. Filter evaluations are
// logged at debug level only.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFilter: func(ctx context.Context, e *domain.FilterEvent) {
			logger.DebugContext(ctx, "filter evaluated",
				"query", e.Query,
				"level", e.Level,
				"category", e.Category,
				"matches", e.Matches,
				"duration", e.Duration,
			)
		},
		OnPickerOpen: func(ctx context.Context, e *domain.PickerEvent) {
			logger.InfoContext(ctx, "picker opened", "session_id", e.SessionID, "team_id", e.TeamID)
		},
		OnPickerClose: func(ctx context.Context, e *domain.PickerEvent) {
			logger.InfoContext(ctx, "picker closed",
				"session_id", e.SessionID,
				"team_id", e.TeamID,
				"outcome", e.Outcome,
				"selected", e.Selected,
			)
		},
		OnTeamChange: func(ctx context.Context, e *domain.TeamEvent) {
			logger.InfoContext(ctx, "team changed", "team_id", e.TeamID, "deleted", e.Deleted)
		},
	}
}
