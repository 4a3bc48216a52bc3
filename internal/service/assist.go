package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sundialhq/sundial/internal/domain"
	"github.com/sundialhq/sundial/internal/store"
	"github.com/sundialhq/sundial/pkg/idx"
	"github.com/sundialhq/sundial/pkg/slogx"
)

// Provider mode values reported in every assist response.
const (
	ProviderOpenAI = "openai"
	ProviderStub   = "stub"
)

const assistModel = openai.GPT4oMini

// AIProvider wraps the optional OpenAI client. Without an API key it runs in
// stub mode; a single failed external call downgrades it to stub for the
// rest of the process lifetime so clients see deterministic output instead
// of repeated upstream errors.
type AIProvider struct {
	client  *openai.Client
	enabled atomic.Bool
}

func NewAIProvider(apiKey string) *AIProvider {
	p := &AIProvider{}
	if apiKey != "" {
		p.client = openai.NewClient(apiKey)
		p.enabled.Store(true)
	}
	return p
}

// Mode reports which provider currently answers requests.
func (p *AIProvider) Mode() string {
	if p.enabled.Load() {
		return ProviderOpenAI
	}
	return ProviderStub
}

// complete runs one chat completion. Returns "" when the provider is (or
// just became) a stub.
func (p *AIProvider) complete(ctx context.Context, system, prompt string) string {
	if p.client == nil || !p.enabled.Load() {
		return ""
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     assistModel,
		MaxTokens: 450,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		p.enabled.Store(false)
		slogx.FromContext(ctx).Error("openai request failed, falling back to stub mode",
			slog.Any("error", err),
		)
		return ""
	}
	if len(resp.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

type AssistService struct {
	Provider *AIProvider
	Store    store.Store
}

type DescriptionResult struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
}

type AgendaResult struct {
	Agenda   string `json:"agenda"`
	Provider string `json:"provider"`
}

type SuggestionsResult struct {
	LocationIdeas []string `json:"locationIdeas"`
	Reminders     []string `json:"reminders"`
	Provider      string   `json:"provider"`
}

type ConflictResult struct {
	Conflicts []domain.Event `json:"conflicts"`
	Summary   string         `json:"summary"`
	Provider  string         `json:"provider"`
}

// ImproveDescription rewrites a draft event description.
func (s *AssistService) ImproveDescription(ctx context.Context, userID, title, description string) (DescriptionResult, error) {
	text := s.Provider.complete(ctx,
		"You improve event descriptions with clear, professional tone.",
		fmt.Sprintf("Event title: %s\nDraft description:\n%s\n\nReturn improved text only.", title, description),
	)
	if text == "" {
		base := strings.TrimSpace(description)
		if base == "" {
			base = "This event brings participants together for a focused session."
		}
		text = fmt.Sprintf("%s: %s The session will include clear objectives, structured discussion, and actionable next steps for all participants.", title, base)
	}

	if err := s.trackUsage(ctx, userID, "improve-description"); err != nil {
		return DescriptionResult{}, err
	}
	return DescriptionResult{Text: text, Provider: s.Provider.Mode()}, nil
}

// GenerateAgenda produces a timeline agenda for the event window.
func (s *AssistService) GenerateAgenda(ctx context.Context, userID, title string, startAt, endAt time.Time, attendees int) (AgendaResult, error) {
	attendeeLabel := "unknown"
	if attendees > 0 {
		attendeeLabel = fmt.Sprintf("%d", attendees)
	}

	agenda := s.Provider.complete(ctx,
		"You generate concise event agendas with timeline bullets.",
		fmt.Sprintf("Title: %s\nStart: %s\nEnd: %s\nAttendees: %s\n\nGenerate a practical timeline agenda.",
			title, startAt.Format(time.RFC3339), endAt.Format(time.RFC3339), attendeeLabel),
	)
	if agenda == "" {
		minutes := int(endAt.Sub(startAt).Minutes())
		if minutes < 30 {
			minutes = 30
		}
		segment := minutes / 4
		if segment < 10 {
			segment = 10
		}
		group := "group"
		if attendees > 0 {
			group = fmt.Sprintf("%d", attendees)
		}
		agenda = strings.Join([]string{
			fmt.Sprintf("- %s Kickoff and context for %s", startAt.Format("15:04"), title),
			fmt.Sprintf("- +%d min Goals alignment and participant introductions (%s attendees)", segment, group),
			fmt.Sprintf("- +%d min Core discussion and decision points", segment*2),
			fmt.Sprintf("- +%d min Action items, owners, and next milestones", segment*3),
		}, "\n")
	}

	if err := s.trackUsage(ctx, userID, "generate-agenda"); err != nil {
		return AgendaResult{}, err
	}
	return AgendaResult{Agenda: agenda, Provider: s.Provider.Mode()}, nil
}

// SmartSuggestions proposes locations and a reminder plan for an event.
func (s *AssistService) SmartSuggestions(ctx context.Context, userID, title, location, description string) (SuggestionsResult, error) {
	result := SuggestionsResult{}

	locLabel := location
	if locLabel == "" {
		locLabel = "unspecified"
	}
	descLabel := description
	if descLabel == "" {
		descLabel = "none"
	}

	text := s.Provider.complete(ctx,
		"You suggest event locations and reminder plans.",
		fmt.Sprintf("Title: %s\nLocation: %s\nDescription: %s\n\nReturn JSON with keys: locationIdeas (array), reminders (array).",
			title, locLabel, descLabel),
	)
	if text != "" {
		var parsed struct {
			LocationIdeas []string `json:"locationIdeas"`
			Reminders     []string `json:"reminders"`
		}
		if err := json.Unmarshal([]byte(text), &parsed); err == nil {
			result.LocationIdeas = parsed.LocationIdeas
			result.Reminders = parsed.Reminders
		} else {
			result.LocationIdeas = []string{"Central office conference room", "Quiet coworking meeting space"}
			result.Reminders = []string{"24 hours before", "2 hours before"}
		}
	} else {
		haystack := strings.ToLower(title + " " + description)
		isRemote := strings.Contains(haystack, "webinar") ||
			strings.Contains(haystack, "remote") ||
			strings.Contains(haystack, "online")
		isWorkshop := strings.Contains(haystack, "workshop") ||
			strings.Contains(haystack, "training")

		switch {
		case isRemote:
			result.LocationIdeas = []string{"Zoom meeting room", "Google Meet session"}
		case isWorkshop:
			result.LocationIdeas = []string{"Coworking workshop room", "Innovation lab classroom"}
		default:
			result.LocationIdeas = []string{"Main office meeting room", "Local cafe private area"}
		}

		result.Reminders = []string{"1 week before (prep)", "24 hours before", "1 hour before"}
		if location == "" {
			result.Reminders = append(result.Reminders, "15 minutes before: confirm location/link")
		}
	}

	if err := s.trackUsage(ctx, userID, "smart-suggestions"); err != nil {
		return SuggestionsResult{}, err
	}
	result.Provider = s.Provider.Mode()
	return result, nil
}

// ConflictCheck looks for the user's events overlapping the proposed window
// and summarizes them.
func (s *AssistService) ConflictCheck(ctx context.Context, userID string, startAt, endAt time.Time) (ConflictResult, error) {
	conflicts, err := s.Store.Events().ListOverlappingEvents(ctx, userID, startAt, endAt)
	if err != nil {
		return ConflictResult{}, err
	}
	if conflicts == nil {
		conflicts = []domain.Event{}
	}

	var lines []string
	for _, c := range conflicts {
		lines = append(lines, fmt.Sprintf("%s: %s to %s",
			c.Title, c.StartAt.Format(time.RFC3339), c.EndAt.Format(time.RFC3339)))
	}
	conflictText := strings.Join(lines, "\n")
	if conflictText == "" {
		conflictText = "None"
	}

	summary := s.Provider.complete(ctx,
		"You summarize schedule conflicts and suggest resolutions.",
		fmt.Sprintf("Proposed window: %s to %s\nConflicts:\n%s\n\nSummarize conflicts and give one recommendation.",
			startAt.Format(time.RFC3339), endAt.Format(time.RFC3339), conflictText),
	)
	if summary == "" {
		if len(conflicts) == 0 {
			summary = "No conflicts found. The proposed time window is clear."
		} else {
			shown := conflicts
			if len(shown) > 5 {
				shown = shown[:5]
			}
			var bullets []string
			for _, c := range shown {
				bullets = append(bullets, fmt.Sprintf("- %s (%s - %s)",
					c.Title,
					c.StartAt.Format("2006-01-02 15:04"),
					c.EndAt.Format("2006-01-02 15:04"),
				))
			}
			summary = fmt.Sprintf("Found %d conflicting event(s):\n%s\nRecommendation: move by 30-60 minutes or update attendee list.",
				len(conflicts), strings.Join(bullets, "\n"))
		}
	}

	if err := s.trackUsage(ctx, userID, "conflict-check"); err != nil {
		return ConflictResult{}, err
	}
	return ConflictResult{
		Conflicts: conflicts,
		Summary:   summary,
		Provider:  s.Provider.Mode(),
	}, nil
}

func (s *AssistService) trackUsage(ctx context.Context, userID, feature string) error {
	return s.Store.AIUsage().RecordUsage(ctx, domain.AIUsage{
		ID:        idx.New().String(),
		UserID:    userID,
		Feature:   feature,
		CreatedAt: time.Now(),
	})
}
