package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aquasys/aquasys-core/internal/bus"
	"github.com/aquasys/aquasys-core/internal/eventlog"
	"github.com/aquasys/aquasys-core/internal/infrastructure/logging"
	"github.com/aquasys/aquasys-core/internal/telemetry"
)

// Completer abstracts the chat-completion gateway. Implemented by
// *Gateway; faked in tests.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const systemPrompt = `You are a hydroponics cultivation expert. Analyze the sensor data and provide precise insights about crop health.

Ideal reference parameters:
- pH: 5.5 - 6.5
- EC (electrical conductivity): 800 - 1400 uS/cm
- Air temperature: 20C - 28C
- Humidity: 40% - 70%
- Water temperature: 18C - 22C

ALWAYS respond in the following JSON format:
{
  "insights": [
    {
      "type": "anomaly" | "trend" | "recommendation" | "correlation",
      "title": "Short, direct title",
      "description": "Detailed description of the insight",
      "severity": "info" | "warning" | "critical",
      "recommendations": ["Recommendation 1", "Recommendation 2"]
    }
  ]
}`

// Analyzer runs AI analysis over recent telemetry and manages the
// stored insight set.
type Analyzer struct {
	readings telemetry.ReadingRepository
	repo     Repository
	events   eventlog.Repository
	bus      *bus.Bus
	gateway  Completer
	logger   *logging.Logger
}

// NewAnalyzer creates an analyzer. A nil gateway means the feature is
// disabled; Analyze then returns ErrDisabled.
func NewAnalyzer(
	readings telemetry.ReadingRepository,
	repo Repository,
	events eventlog.Repository,
	eventBus *bus.Bus,
	gateway Completer,
	logger *logging.Logger,
) *Analyzer {
	return &Analyzer{
		readings: readings,
		repo:     repo,
		events:   events,
		bus:      eventBus,
		gateway:  gateway,
		logger:   logger.With("component", "insights"),
	}
}

// Analyze runs one analysis pass: summarize the latest readings, ask
// the gateway, replace the active insight set with the findings.
//
// A failing or incoherent gateway does not fail the run. The previous
// insights are retired and a single placeholder is stored so the
// dashboard shows that analysis is pending rather than stale findings.
func (a *Analyzer) Analyze(ctx context.Context) ([]Insight, error) {
	if a.gateway == nil {
		return nil, ErrDisabled
	}

	readings, err := a.readings.LastN(ctx, analysisWindow)
	if err != nil {
		return nil, fmt.Errorf("loading readings for analysis: %w", err)
	}
	if len(readings) == 0 {
		return nil, ErrNoData
	}

	stats := computeStats(readings)

	var insights []Insight
	content, err := a.gateway.Complete(ctx, systemPrompt, buildUserPrompt(stats))
	if err != nil {
		a.logger.Warn("gateway request failed, storing placeholder", "error", err)
		insights = []Insight{placeholderInsight()}
	} else {
		insights, err = parseInsights(content)
		if err != nil {
			a.logger.Warn("unparseable gateway response, storing placeholder", "error", err)
			insights = []Insight{placeholderInsight()}
		}
	}

	if err := a.repo.DeactivateAll(ctx); err != nil {
		return nil, fmt.Errorf("retiring previous insights: %w", err)
	}

	for i := range insights {
		insights[i].ID = uuid.NewString()
		insights[i].IsActive = true
		if err := a.repo.Insert(ctx, &insights[i]); err != nil {
			return nil, fmt.Errorf("storing insight: %w", err)
		}
		a.bus.Publish(bus.ChannelInsightCreated, &insights[i])
	}

	a.recordEvent(ctx, fmt.Sprintf("analysis completed: %d insights generated", len(insights)))

	return insights, nil
}

// ActiveInsights returns the latest analysis run's findings.
func (a *Analyzer) ActiveInsights(ctx context.Context) ([]Insight, error) {
	return a.repo.ListActive(ctx)
}

// buildUserPrompt renders the statistical snapshot for the gateway.
func buildUserPrompt(stats Stats) string {
	var b strings.Builder
	b.WriteString("Analyze the following hydroponic system data:\n\nCurrent data:\n")
	fmt.Fprintf(&b, "- pH: %.2f (avg: %.2f, range: %.2f - %.2f)\n",
		stats.PH.Current, stats.PH.Avg, stats.PH.Min, stats.PH.Max)
	fmt.Fprintf(&b, "- EC: %.2f uS/cm (avg: %.2f, range: %.2f - %.2f)\n",
		stats.EC.Current, stats.EC.Avg, stats.EC.Min, stats.EC.Max)
	fmt.Fprintf(&b, "- Air temp: %.1fC (avg: %.1f, range: %.1f - %.1f)\n",
		stats.AirTemp.Current, stats.AirTemp.Avg, stats.AirTemp.Min, stats.AirTemp.Max)
	fmt.Fprintf(&b, "- Humidity: %.1f%% (avg: %.1f, range: %.1f - %.1f)\n",
		stats.Humidity.Current, stats.Humidity.Avg, stats.Humidity.Min, stats.Humidity.Max)
	fmt.Fprintf(&b, "- Water temp: %.1fC (avg: %.1f, range: %.1f - %.1f)\n",
		stats.WaterTemp.Current, stats.WaterTemp.Avg, stats.WaterTemp.Min, stats.WaterTemp.Max)
	b.WriteString(`
Identify:
1. Critical anomalies that require immediate action
2. Concerning trends in the parameters
3. Correlations between the different sensors
4. Specific recommendations to optimize the crop`)
	return b.String()
}

// parseInsights extracts the insight list from the gateway's text.
// Models wrap JSON in code fences or prose, so it takes the first '{'
// through the last '}' rather than decoding the whole content.
func parseInsights(content string) ([]Insight, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in gateway response")
	}

	var envelope struct {
		Insights []struct {
			Type            string   `json:"type"`
			Title           string   `json:"title"`
			Description     string   `json:"description"`
			Severity        string   `json:"severity"`
			Recommendations []string `json:"recommendations"`
		} `json:"insights"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &envelope); err != nil {
		return nil, fmt.Errorf("decoding insights: %w", err)
	}
	if len(envelope.Insights) == 0 {
		return nil, fmt.Errorf("gateway response contained no insights")
	}

	insights := make([]Insight, 0, len(envelope.Insights))
	for _, in := range envelope.Insights {
		recommendations := in.Recommendations
		if recommendations == nil {
			recommendations = []string{}
		}
		insights = append(insights, Insight{
			Type:            in.Type,
			Title:           in.Title,
			Description:     in.Description,
			Severity:        in.Severity,
			Recommendations: recommendations,
		})
	}
	return insights, nil
}

// placeholderInsight is stored when the gateway fails or returns
// something unusable.
func placeholderInsight() Insight {
	return Insight{
		Type:        TypeRecommendation,
		Title:       "Analysis Pending",
		Description: "The data is still being analyzed. Please try again in a few moments.",
		Severity:    SeverityInfo,
		Recommendations: []string{
			"Wait for the next automatic analysis",
		},
	}
}

func (a *Analyzer) recordEvent(ctx context.Context, message string) {
	entry := &eventlog.Entry{Type: eventlog.TypeInsightGenerated, Message: message}
	if err := a.events.Create(ctx, entry); err != nil {
		a.logger.Warn("failed to record event", "type", eventlog.TypeInsightGenerated, "error", err)
		return
	}
	a.bus.Publish(bus.ChannelEventLogCreated, entry)
}
