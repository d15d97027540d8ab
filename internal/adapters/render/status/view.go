package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/kbtrain/internal/application"
	"github.com/bnema/kbtrain/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const freshnessBarWidth = 20

type RenderOptions struct {
	StaleAfter      time.Duration
	TriggerCooldown time.Duration
}

func renderHeader(status application.Status, s styles) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		s.title.Render("Knowledge-base training"),
		s.header.Render(fmt.Sprintf("user: %s  agents: %d  checked: %s",
			status.UserID, len(status.Agents), status.CheckedAt.Format("2006-01-02 15:04"))),
	)
}

func renderAgent(agent application.AgentStatus, now time.Time, opts RenderOptions, s styles) string {
	parts := []string{
		s.agent.Render(agentTitle(agent.Agent)) + " " + stateBadge(agent, s),
	}

	if agent.Staleness.Configured && agent.CheckErr == nil {
		for _, key := range domain.TrainingKeys {
			parts = append(parts, freshnessLine(key, agent.Staleness.Timestamps[key], now, opts.StaleAfter, s))
		}
	}

	parts = append(parts,
		s.detail.Render(triggerLine(agent.LastFiredAt, now, opts.TriggerCooldown)),
		s.detail.Render(fmt.Sprintf("tokens spent: %s", domain.UsageRecord{TotalTokenCount: agent.TokensSpent}.TotalCompact())),
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func agentTitle(agent domain.Agent) string {
	name := agent.DisplayName()
	if agent.ID == "" || name == "Agent "+string(agent.ID) {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, agent.ID)
}

func stateBadge(agent application.AgentStatus, s styles) string {
	switch {
	case !agent.Staleness.Configured:
		return s.empty.Render("[not configured]")
	case agent.CheckErr != nil:
		return s.warning.Render(fmt.Sprintf("[check failed: %v]", agent.CheckErr))
	case agent.Staleness.Stale:
		return s.warning.Render("[stale]")
	default:
		return s.ok.Render("[fresh]")
	}
}

func freshnessLine(key domain.TrainingKey, raw string, now time.Time, staleAfter time.Duration, s styles) string {
	label := s.key.Render(fmt.Sprintf("%-12s", string(key)+":"))

	trainedAt, ok := domain.ParseTrainingTime(raw)
	if !ok {
		return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", renderBar(0, s), " ", s.warning.Render("never trained"))
	}

	age := now.Sub(trainedAt)
	remaining := 1.0
	if staleAfter > 0 {
		remaining = 1 - age.Seconds()/staleAfter.Seconds()
	}
	remaining = clampFraction(remaining)

	meta := lipgloss.NewStyle().Foreground(interpolateColor(remaining, 0, 1)).Render(formatAge(age) + " ago")
	line := lipgloss.JoinHorizontal(lipgloss.Top, label, " ", renderBar(remaining, s), " ", meta)
	if staleAfter > 0 && age >= staleAfter {
		line += " " + s.warning.Render("[stale]")
	}

	return line
}

func triggerLine(lastFiredAt *time.Time, now time.Time, cooldown time.Duration) string {
	if lastFiredAt == nil {
		return "last trigger: never"
	}

	line := fmt.Sprintf("last trigger: %s ago (%s)", formatAge(now.Sub(*lastFiredAt)), lastFiredAt.Format("15:04 on 02 Jan"))
	if cooldown > 0 && now.Sub(*lastFiredAt) < cooldown {
		line += fmt.Sprintf(", cooling down for %s", formatAge(cooldown-now.Sub(*lastFiredAt)))
	}
	return line
}

func renderBar(fraction float64, s styles) string {
	filled := int(math.Round(float64(freshnessBarWidth) * clampFraction(fraction)))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", freshnessBarWidth-filled)),
		s.barBracket.Render("]"),
	)
}

func clampFraction(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func formatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	switch {
	case d < time.Minute:
		return "<1m"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		hours := int(d.Hours())
		minutes := int(d.Minutes()) - hours*60
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%02dm", hours, minutes)
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// interpolateColor maps value onto the 240..255 greyscale ramp.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
