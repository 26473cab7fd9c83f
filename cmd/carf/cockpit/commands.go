package cockpit

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"carf/internal/types"
)

// loadScenarioCmd fans out the scenario metadata, guardian status, and
// pending escalation count in parallel. Only the scenario fetch is
// authoritative; guardian and escalations are best-effort so a backend
// without those endpoints does not discard good scenario metadata.
func (m Model) loadScenarioCmd(epoch int, scenarioID string) tea.Cmd {
	client := m.client
	timeout := m.cfg.APITimeout()
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		msg := scenarioLoadedMsg{epoch: epoch, pendingCount: -1}
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			info, err := client.Scenario(ctx, scenarioID)
			if err != nil {
				return err
			}
			msg.info = info
			return nil
		})
		g.Go(func() error {
			status, err := client.GuardianStatus(ctx)
			if err != nil {
				log.Debug("guardian status unavailable", zap.Error(err))
				return nil
			}
			msg.guardian = status
			return nil
		})
		g.Go(func() error {
			escalations, err := client.Escalations(ctx, true)
			if err != nil {
				log.Debug("escalation count unavailable", zap.Error(err))
				return nil
			}
			msg.pendingCount = len(escalations)
			return nil
		})
		msg.err = g.Wait()
		return msg
	}
}

// submitQueryCmd issues POST /query. The reply is tagged with the epoch so a
// response arriving after a scenario switch is discarded.
func (m Model) submitQueryCmd(epoch int, query, scenarioID string) tea.Cmd {
	client := m.client
	timeout := m.cfg.APITimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		response, err := client.SubmitQuery(ctx, query, scenarioID)
		return queryResultMsg{
			epoch:    epoch,
			response: response,
			elapsed:  time.Since(start),
			err:      err,
		}
	}
}

// fetchAgentStatsCmd refreshes the agent comparison panel and the experience
// patterns shown in the executive view.
func (m Model) fetchAgentStatsCmd() tea.Cmd {
	client := m.client
	timeout := m.cfg.APITimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		agents, err := client.AgentStats(ctx)
		if err != nil {
			return agentStatsMsg{err: err}
		}
		// Patterns and the escalation badge count piggyback on the same
		// refresh; both are best-effort.
		patterns, _ := client.ExperiencePatterns(ctx)
		msg := agentStatsMsg{agents: agents, patterns: patterns}
		if escalations, err := client.Escalations(ctx, true); err == nil {
			msg.pendingCount = len(escalations)
		} else {
			msg.pendingCount = -1
		}
		return msg
	}
}

// fetchWorkflowTraceCmd lists the recent backend workflow runs and fetches
// the trace of the newest one. Entirely best-effort; a backend without the
// workflow endpoints just leaves the developer view on its empty state.
func (m Model) fetchWorkflowTraceCmd() tea.Cmd {
	client := m.client
	timeout := m.cfg.APITimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		runs, err := client.WorkflowRecent(ctx, 5)
		if err != nil || len(runs) == 0 {
			return workflowTraceMsg{err: err}
		}
		steps, err := client.WorkflowTrace(ctx, runs[0].ID)
		return workflowTraceMsg{steps: steps, err: err}
	}
}

// fetchVizConfigCmd asks the backend for its chart recommendation; it only
// applies when the local chart setting is "auto".
func (m Model) fetchVizConfigCmd(viewContext string) tea.Cmd {
	client := m.client
	timeout := m.cfg.APITimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		viz, err := client.VisualizationConfig(ctx, viewContext)
		return vizConfigMsg{viz: viz, err: err}
	}
}

func (m Model) generateInsightsCmd(sessionID string) tea.Cmd {
	client := m.client
	timeout := m.cfg.APITimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		lines, err := client.GenerateInsights(ctx, sessionID)
		return insightsMsg{lines: lines, err: err}
	}
}

// fetchSimilarCmd looks up past analyses related to an answered query. The
// reply is epoch-tagged like the query itself.
func (m Model) fetchSimilarCmd(epoch int, query string) tea.Cmd {
	client := m.client
	timeout := m.cfg.APITimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		matches, err := client.SimilarExperiences(ctx, query, 3)
		return similarMsg{epoch: epoch, matches: matches, err: err}
	}
}

func (m Model) suggestImprovementsCmd(sessionID string) tea.Cmd {
	client := m.client
	timeout := m.cfg.APITimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		lines, err := client.SuggestImprovements(ctx, sessionID)
		return suggestionsMsg{lines: lines, err: err}
	}
}

func (m Model) refreshTickCmd() tea.Cmd {
	return tea.Tick(m.cfg.RefreshInterval(), func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

// waitLogEntryCmd blocks on the log stream channel; re-issued after every
// delivered entry.
func (m Model) waitLogEntryCmd() tea.Cmd {
	stream := m.stream
	return func() tea.Msg {
		entry, ok := <-stream.Entries()
		if !ok {
			return streamClosedMsg{}
		}
		return logEntryMsg(entry)
	}
}

func (m Model) waitStreamStateCmd() tea.Cmd {
	stream := m.stream
	return func() tea.Msg {
		return streamStateMsg(<-stream.States())
	}
}

func (m Model) waitConfigCmd() tea.Cmd {
	watcher := m.watcher
	return func() tea.Msg {
		cfg, ok := <-watcher.Updates()
		if !ok {
			return nil
		}
		return configReloadedMsg{cfg: cfg}
	}
}

func (m Model) checkVisitedCmd() tea.Cmd {
	recorder := m.recorder
	return func() tea.Msg {
		if recorder == nil {
			return visitedMsg{visited: true}
		}
		visited, err := recorder.Visited()
		if err != nil {
			return visitedMsg{visited: true}
		}
		return visitedMsg{visited: visited}
	}
}

func (m Model) markVisitedCmd() tea.Cmd {
	recorder := m.recorder
	return func() tea.Msg {
		if recorder != nil {
			_ = recorder.MarkVisited()
		}
		return nil
	}
}

// recordSessionCmd persists a completed analysis in the background.
func (m Model) recordSessionCmd(session types.AnalysisSession) tea.Cmd {
	recorder := m.recorder
	log := m.log
	return func() tea.Msg {
		if recorder == nil {
			return nil
		}
		if err := recorder.Record(session); err != nil {
			log.Warn("recording session failed", zap.Error(err))
		}
		return nil
	}
}

func (m Model) loadHistoryCmd() tea.Cmd {
	recorder := m.recorder
	return func() tea.Msg {
		if recorder == nil {
			return historyLoadedMsg{}
		}
		sessions, err := recorder.List(100)
		return historyLoadedMsg{sessions: sessions, err: err}
	}
}

func (m Model) deleteSessionCmd(id string) tea.Cmd {
	recorder := m.recorder
	return func() tea.Msg {
		if recorder != nil {
			_ = recorder.Delete(id)
		}
		return nil
	}
}

func (m Model) explainCmd(sessionID string) tea.Cmd {
	client := m.client
	timeout := m.cfg.APITimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		markdown, err := client.Explain(ctx, sessionID)
		return explainMsg{markdown: markdown, err: err}
	}
}

func (m Model) fileEscalationCmd(sessionID, reason string) tea.Cmd {
	client := m.client
	timeout := m.cfg.APITimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return escalationFiledMsg{err: client.SubmitEscalation(ctx, sessionID, reason)}
	}
}
