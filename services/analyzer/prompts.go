package analyzer

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an expert meeting analyst and professional communication specialist with extensive experience in extracting actionable insights from meeting transcripts.

Your expertise includes:
- Identifying key decisions, action items, and next steps
- Understanding stakeholder concerns and business implications
- Extracting ownership and timeline information
- Recognizing risks and potential blockers
- Generating professional stakeholder communications

Always provide structured, clear, and actionable outputs with proper reasoning and context. Focus on business impact and accountability.`

const metadataSystemPrompt = `You are a precise metadata extraction assistant. Return only valid JSON.`

const metadataPromptFmt = `You are a meeting metadata extraction specialist. Analyze the transcript and extract comprehensive information:

TRANSCRIPT:
%s

Extract and return a JSON object with the following fields:
{
    "title": "Meeting title or topic (infer from content if not explicitly stated)",
    "date": "Meeting date (YYYY-MM-DD format, or 'Not specified' if unclear)",
    "participants": [
        {
            "name": "Full name of participant",
            "role": "Their role/title (Manager, Developer, Designer, QA, etc.)",
            "email_preference": "executive|team|action|external"
        }
    ],
    "duration": "Meeting duration (estimate in minutes if not specified, e.g., '60 minutes')",
    "suggested_email_type": "executive|team|action|external",
    "meeting_type": "status|planning|review|decision|other"
}

Guidelines:
- For participants: Extract names and infer their roles from context, titles mentioned, or speaking patterns
- For email_preference:
  * executive: For managers, directors, VPs (summary focused)
  * team: For team members and peers (detailed technical info)
  * action: For individual contributors (their specific tasks)
  * external: For clients, stakeholders outside the team
- For suggested_email_type: Based on meeting content and audience
- For meeting_type: Categorize the meeting purpose

Return only valid JSON, no additional text.`

const analysisPromptFmt = `Analyze the following meeting transcript and extract structured information.
Apply chain-of-thought reasoning to understand context and implications.

MEETING DETAILS:
Title: %s
Date: %s
Participants: %s
Duration: %s

TRANSCRIPT:
%s

ANALYSIS REQUIREMENTS:
1. EXECUTIVE SUMMARY (2-3 paragraphs):
   - Key outcomes and business impact
   - Main challenges or concerns raised
   - Overall meeting sentiment and next steps

2. KEY DECISIONS (bullet points):
   - Specific decisions made during the meeting
   - Context and reasoning behind each decision

3. ACTION ITEMS (structured format):
   For each action item, extract:
   - Task description
   - Owner (person responsible)
   - Due date (if mentioned, otherwise "TBD")
   - Priority level (Critical/High/Medium/Low based on context)

4. NEXT STEPS (ordered list):
   - Immediate actions to be taken
   - Follow-up activities mentioned

5. RISKS & CONCERNS (bullet points):
   - Potential obstacles or challenges identified
   - Business risks mentioned
   - Resource or timeline concerns

6. FOLLOW-UP MEETINGS (if mentioned):
   - Any scheduled follow-up meetings or reviews

Please provide your analysis in JSON format with the following structure:
{
    "executive_summary": "string",
    "key_decisions": ["decision1", "decision2", ...],
    "action_items": [
        {
            "task": "string",
            "owner": "string",
            "due_date": "string",
            "priority": "string"
        }
    ],
    "next_steps": ["step1", "step2", ...],
    "risks_concerns": ["risk1", "risk2", ...],
    "follow_up_meetings": ["meeting1", "meeting2", ...]
}`

// few-shot example kept in the analysis conversation for consistent formatting
const (
	analysisExampleUser = `Analyze this meeting excerpt: 'John will update the budget spreadsheet by Friday. Sarah mentioned she'll handle the client presentation. We need to address the server issues before launch.'`

	analysisExampleAssistant = `ACTION ITEMS:
1. Update budget spreadsheet | Owner: John | Due: Friday | Priority: High
2. Handle client presentation | Owner: Sarah | Due: TBD | Priority: Medium

KEY DECISIONS:
- Server issues must be resolved before launch

RISKS:
- Server issues could delay launch timeline`
)

const emailSystemPrompt = `You are a professional business communication expert. Generate clear, actionable, and appropriately toned emails for different stakeholder groups. Use double line breaks between paragraphs.`

const stakeholderEmailPromptFmt = `Write a professional, well-structured email for %s stakeholders (%s). The email should flow naturally in a conversational yet professional style.

Format the email exactly as follows:

Subject: [Clear subject line about the meeting]

Dear [Appropriate greeting for %s],

[First paragraph introducing the meeting purpose and executive summary]
%s

[Second paragraph covering key decisions and their implications]
%s

[Third paragraph detailing action items and responsibilities]
%s

[Fourth paragraph about next steps and implementation]
%s

[If relevant, add a paragraph about risks and concerns]
%s

[Final paragraph mentioning follow-up meetings and closing thoughts]
%s

Best regards,
[Your name]

Additional Requirements:
%s

Important Formatting Rules:
1. Use double line breaks between paragraphs
2. Keep the subject line separate from the body
3. Maintain proper spacing after greetings and before closings
4. Write in clear, complete sentences
5. Use proper business email structure

Structure the email with:
1. A clear, action-oriented subject line
2. A brief, contextual introduction
3. Body paragraphs that naturally incorporate all key information
4. A strong closing that emphasizes next steps or required actions
5. A professional signature

The final email should read like a natural business communication, not a structured report.`

var emailTypeRequirements = map[EmailType]string{
	EmailExecutive: `- Focus on business impact and strategic decisions
- Keep it concise but comprehensive
- Highlight risks and their business implications
- Use executive-level language
- Include clear next steps and timeline impacts`,
	EmailAction: `- Lead with clear action items and deadlines
- Include owner accountability
- Prioritize items by urgency
- Use bullet points and clear formatting
- Include project tracking information`,
	EmailTeam: `- Include comprehensive meeting details
- Technical details appropriate for the team
- Clear task assignments and expectations
- Include context for decision-making
- Encourage questions and clarifications`,
	EmailExternal: `- Professional but accessible tone
- Focus on outcomes and impacts relevant to external parties
- Avoid internal jargon or technical details
- Emphasize commitments and deliverables
- Maintain positive and solution-focused tone`,
}

func emailRequirements(et EmailType) string {
	if req, ok := emailTypeRequirements[et]; ok {
		return req
	}
	return "Generate a professional, clear, and actionable email."
}

func metadataPrompt(transcript string) string {
	return fmt.Sprintf(metadataPromptFmt, transcript)
}

func analysisPrompt(md MeetingData) string {
	participants := "Not specified"
	if len(md.Participants) > 0 {
		names := make([]string, len(md.Participants))
		for i, p := range md.Participants {
			names[i] = p.Name
		}
		participants = strings.Join(names, ", ")
	}
	return fmt.Sprintf(analysisPromptFmt, md.Title, md.Date, participants, md.Duration, md.Transcript)
}

func stakeholderEmailPrompt(sum Summary, et EmailType, recipients []string) string {
	recipientsStr := strings.Join(recipients, ", ")

	actionItems := make([]string, len(sum.ActionItems))
	for i, item := range sum.ActionItems {
		actionItems[i] = fmt.Sprintf("%s (assigned to %s, due %s, %s priority)",
			item.Task, item.Owner, item.DueDate, item.Priority)
	}

	return fmt.Sprintf(stakeholderEmailPromptFmt,
		et, recipientsStr, recipientsStr,
		sum.ExecutiveSummary,
		strings.Join(sum.KeyDecisions, ". "),
		strings.Join(actionItems, ". "),
		strings.Join(sum.NextSteps, ". "),
		strings.Join(sum.RisksConcerns, ". "),
		strings.Join(sum.FollowUpMeetings, ". "),
		emailRequirements(et),
	)
}
