package interview

import (
	"fmt"

	"github.com/tesslabs/tess/domain/entities"
	"github.com/tesslabs/tess/domain/repositories"
)

const interviewerPrompt = `You are TESS an AI interviewer conducting an interview for the role of %s.
Your primary objective is to assess the candidate's (role:'user') qualifications, skills, and experiences strictly related to the %s role.
Ask only questions that are directly relevant to the job responsibilities, required qualifications, and technical or behavioral competencies necessary for this position.
Here's the job description for reference: %s.

### Rule :
1. Avoid discussing any unrelated topics, personal details, or opinions outside the context of the job.
2. Do not repeat the same question or ask for the same information more than once.
3. Ensure the conversation remains professional, focused, and efficient.
4. Begin by introducing yourself in very short before proceeding to the questions.
5. Ask questions that are open-ended and encourage the candidate to provide detailed responses.
6. Do not provide user with any assesment, feedback or additional information.
7. If the candidate asks for clarification, provide only very short & necessary details to answer the question.`

// BuildMessages assembles the completion request for one turn: the
// interviewer system instruction followed by the full turn log, whose last
// entry is the candidate's newest utterance.
func BuildMessages(interview entities.Interview, turns []entities.Turn) []repositories.ChatMessage {
	messages := make([]repositories.ChatMessage, 0, len(turns)+1)
	messages = append(messages, repositories.ChatMessage{
		Role:    repositories.SystemRole,
		Content: fmt.Sprintf(interviewerPrompt, interview.Title, interview.Title, interview.Description),
	})

	for _, turn := range turns {
		role := repositories.UserRole
		if turn.Role == entities.TurnRoleAssistant {
			role = repositories.AssistantRole
		}
		messages = append(messages, repositories.ChatMessage{Role: role, Content: turn.Content})
	}

	return messages
}

const assessorPrompt = `You are an AI assesment generator conducting an assesment for the role of %s.
Your primary objective is to assess the candidate based on the following conversation history: %s.
Here's the job description for reference: %s.
You will provide your response in JSON format as shown below:
{
  "overallScore": (0 to 100),
  "categories": [
    { "name": "Technical Knowledge", "score": (0 to 100) },
    { "name": "Communication Skills", "score": (0 to 100) },
    { "name": "Problem Solving", "score": (0 to 100) },
    { "name": "Cultural Fit", "score": (0 to 100) }
  ],
  "strengths": [ (2 to 3 strengths) ],
  "improvements": [ (2 to 3 improvements) ],
  "summary": (detailed summary of the assesment)
}

### Rule :
1. Give the response in the JSON format as shown above.
2. Give low marks for irrelevant, off-topic, or inappropriate responses.
3. Provide scores for each category based on the candidate's responses.`

// BuildAssessmentMessages assembles the single-shot assessment request for
// a finished interview.
func BuildAssessmentMessages(title, description, conversation string) []repositories.ChatMessage {
	return []repositories.ChatMessage{{
		Role:    repositories.SystemRole,
		Content: fmt.Sprintf(assessorPrompt, title, conversation, description),
	}}
}
