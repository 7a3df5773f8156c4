package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkg/errors"

	"github.com/minumate/backend/core"
)

// EmailType selects the tone and focus of a generated stakeholder email.
type EmailType string

const (
	EmailExecutive EmailType = "executive"
	EmailTeam      EmailType = "team"
	EmailAction    EmailType = "action"
	EmailExternal  EmailType = "external"
)

type (
	// Participant as extracted from a transcript.
	Participant struct {
		Name            string `json:"name"`
		Role            string `json:"role"`
		EmailPreference string `json:"email_preference"`
	}

	// Metadata extracted from a transcript when not supplied by the caller.
	Metadata struct {
		Title              string        `json:"title"`
		Date               string        `json:"date"`
		Participants       []Participant `json:"participants"`
		Duration           string        `json:"duration"`
		SuggestedEmailType string        `json:"suggested_email_type"`
		MeetingType        string        `json:"meeting_type"`
	}

	// MeetingData is the analyzer input. Missing Title/Participants are
	// filled from extracted metadata before analysis.
	MeetingData struct {
		Transcript         string
		Title              string
		Date               string
		Duration           string
		Participants       []Participant
		SuggestedEmailType EmailType
		MeetingType        string
	}

	ActionItem struct {
		Task     string `json:"task"`
		Owner    string `json:"owner"`
		DueDate  string `json:"due_date"`
		Priority string `json:"priority"`
		Status   string `json:"status,omitempty"`
	}

	// Summary is the structured analysis of a transcript.
	Summary struct {
		ExecutiveSummary string       `json:"executive_summary"`
		KeyDecisions     []string     `json:"key_decisions"`
		ActionItems      []ActionItem `json:"action_items"`
		NextSteps        []string     `json:"next_steps"`
		RisksConcerns    []string     `json:"risks_concerns"`
		FollowUpMeetings []string     `json:"follow_up_meetings"`
	}

	// DraftEmail is a per-participant follow-up email draft.
	DraftEmail struct {
		Subject   string `json:"subject"`
		Content   string `json:"content"`
		Role      string `json:"role"`
		EmailType string `json:"email_type"`
	}

	Service interface {
		ExtractMetadata(ctx context.Context, transcript string) (Metadata, error)
		// Analyze fills missing MeetingData fields from extracted metadata
		// and returns the structured summary.
		Analyze(ctx context.Context, md *MeetingData) (Summary, error)
		GeneratePersonalizedEmails(sum Summary, md MeetingData) map[string]DraftEmail
		GenerateStakeholderEmail(ctx context.Context, sum Summary, et EmailType, recipients []string) (string, error)
	}

	service struct {
		client openai.Client
		model  string
		logger core.Logger
	}
)

const (
	metadataMaxTokens = 800
	analysisMaxTokens = 2000
	emailMaxTokens    = 1500

	metadataTemperature = 0.1
	analysisTemperature = 0.3
	emailTemperature    = 0.4
)

func NewService(conf *core.Config, logger core.Logger) Service {
	opts := []option.RequestOption{option.WithAPIKey(conf.OpenAI.APIKey)}
	if conf.OpenAI.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(conf.OpenAI.BaseURL))
	}
	return &service{
		client: openai.NewClient(opts...),
		model:  conf.OpenAI.Model,
		logger: logger,
	}
}

func (svc *service) ExtractMetadata(ctx context.Context, transcript string) (Metadata, error) {
	params := openai.ChatCompletionNewParams{
		Model: svc.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(metadataSystemPrompt),
			openai.UserMessage(metadataPrompt(transcript)),
		},
		MaxCompletionTokens: openai.Int(metadataMaxTokens),
		Temperature:         openai.Float(metadataTemperature),
	}

	resp, err := svc.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return defaultMetadata(), errors.Wrap(err, "failed to extract meeting metadata")
	}
	if len(resp.Choices) == 0 {
		return defaultMetadata(), errors.New("failed to extract meeting metadata: empty response")
	}

	var md Metadata
	if err := json.Unmarshal([]byte(stripJSONFences(resp.Choices[0].Message.Content)), &md); err != nil {
		svc.logger.Warn(fmt.Sprintf("metadata extraction returned invalid JSON: %v", err))
		return defaultMetadata(), nil
	}
	return md, nil
}

func defaultMetadata() Metadata {
	return Metadata{
		Title:              "Meeting Analysis",
		Date:               "Not specified",
		Participants:       []Participant{{Name: "Unknown", Role: "Participant", EmailPreference: "team"}},
		Duration:           "Not specified",
		SuggestedEmailType: "team",
		MeetingType:        "other",
	}
}

func (svc *service) Analyze(ctx context.Context, md *MeetingData) (Summary, error) {
	if md.Title == "" || len(md.Participants) == 0 {
		extracted, err := svc.ExtractMetadata(ctx, md.Transcript)
		if err != nil {
			svc.logger.Warn(err.Error())
			extracted = defaultMetadata()
		}
		if md.Title == "" {
			md.Title = extracted.Title
		}
		if md.Date == "" {
			md.Date = extracted.Date
		}
		if len(md.Participants) == 0 {
			md.Participants = extracted.Participants
		}
		if md.Duration == "" {
			md.Duration = extracted.Duration
		}
		if md.SuggestedEmailType == "" {
			md.SuggestedEmailType = EmailType(extracted.SuggestedEmailType)
		}
		if md.MeetingType == "" {
			md.MeetingType = extracted.MeetingType
		}
	}

	chunks := SplitTranscript(md.Transcript, MaxChunkSize)
	if len(chunks) <= 1 {
		return svc.analyzeChunk(ctx, *md, md.Transcript)
	}

	var merged Summary
	summaries := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		sum, err := svc.analyzeChunk(ctx, *md, chunk)
		if err != nil {
			return Summary{}, err
		}
		summaries = append(summaries, sum.ExecutiveSummary)
		merged.KeyDecisions = append(merged.KeyDecisions, sum.KeyDecisions...)
		merged.ActionItems = append(merged.ActionItems, sum.ActionItems...)
		merged.NextSteps = append(merged.NextSteps, sum.NextSteps...)
		merged.RisksConcerns = append(merged.RisksConcerns, sum.RisksConcerns...)
		merged.FollowUpMeetings = append(merged.FollowUpMeetings, sum.FollowUpMeetings...)
	}
	merged.ExecutiveSummary = strings.Join(summaries, "\n\n")
	return merged, nil
}

func (svc *service) analyzeChunk(ctx context.Context, md MeetingData, transcript string) (Summary, error) {
	md.Transcript = transcript
	params := openai.ChatCompletionNewParams{
		Model: svc.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(analysisExampleUser),
			openai.AssistantMessage(analysisExampleAssistant),
			openai.UserMessage(analysisPrompt(md)),
		},
		MaxCompletionTokens: openai.Int(analysisMaxTokens),
		Temperature:         openai.Float(analysisTemperature),
	}

	resp, err := svc.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to analyze transcript")
	}
	if len(resp.Choices) == 0 {
		return Summary{}, errors.New("failed to analyze transcript: empty response")
	}
	return parseSummary(resp.Choices[0].Message.Content)
}

// parseSummary decodes the model's JSON analysis, tolerating markdown fences.
func parseSummary(content string) (Summary, error) {
	var sum Summary
	if err := json.Unmarshal([]byte(stripJSONFences(content)), &sum); err != nil {
		return Summary{}, errors.Wrap(err, "failed to parse analysis response")
	}
	for i := range sum.ActionItems {
		if sum.ActionItems[i].Status == "" {
			sum.ActionItems[i].Status = "pending"
		}
	}
	return sum, nil
}

// stripJSONFences removes a markdown ```json code fence if present.
func stripJSONFences(content string) string {
	if idx := strings.Index(content, "```json"); idx >= 0 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	}
	return strings.TrimSpace(content)
}

// GeneratePersonalizedEmails builds one draft per participant. The body is
// identical for everyone except for the [NAME] substitution; no API call.
func (svc *service) GeneratePersonalizedEmails(sum Summary, md MeetingData) map[string]DraftEmail {
	actionItems := make([]string, len(sum.ActionItems))
	for i, item := range sum.ActionItems {
		actionItems[i] = fmt.Sprintf("%s (assigned to %s, due %s)", item.Task, item.Owner, item.DueDate)
	}

	subject := fmt.Sprintf("Follow-Up on %s", md.Title)
	base := fmt.Sprintf(`Dear [NAME],

I hope this email finds you well. I wanted to follow up on our %s meeting to ensure everyone is aligned on the key outcomes and next steps.

**Meeting Summary:**
%s

**Key Decisions Made:**
%s

**Action Items:**
%s

**Next Steps:**
%s

Please let me know if you have any questions or need clarification on any of these points. Looking forward to our continued collaboration.

Best regards,
Meeting Organizer`,
		md.Date,
		sum.ExecutiveSummary,
		strings.Join(sum.KeyDecisions, ". "),
		strings.Join(actionItems, ". "),
		strings.Join(sum.NextSteps, ". "),
	)

	emails := make(map[string]DraftEmail, len(md.Participants))
	for _, p := range md.Participants {
		name := p.Name
		if name == "" {
			name = "Unknown"
		}
		role := p.Role
		if role == "" {
			role = "Participant"
		}
		pref := p.EmailPreference
		if pref == "" {
			pref = "team"
		}
		emails[name] = DraftEmail{
			Subject:   subject,
			Content:   strings.ReplaceAll(base, "[NAME]", name),
			Role:      role,
			EmailType: pref,
		}
	}
	return emails
}

func (svc *service) GenerateStakeholderEmail(ctx context.Context, sum Summary, et EmailType, recipients []string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: svc.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(emailSystemPrompt),
			openai.UserMessage(stakeholderEmailPrompt(sum, et, recipients)),
		},
		MaxCompletionTokens: openai.Int(emailMaxTokens),
		Temperature:         openai.Float(emailTemperature),
	}

	resp, err := svc.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate email")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("failed to generate email: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
