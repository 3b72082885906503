package rag

import "strings"

// StandaloneQuestionPrompt asks the model to rewrite a follow-up question so it can be
// understood without the conversation
type StandaloneQuestionPrompt struct {
	ConvHistory string
	Question    string
}

func (p StandaloneQuestionPrompt) Render() string {
	var sb strings.Builder
	sb.WriteString("Given some conversation history (if any) and a question, convert the question to a standalone question.\n")
	sb.WriteString("conversation history: " + p.ConvHistory + "\n")
	sb.WriteString("question: " + p.Question + "\n")
	sb.WriteString("standalone question:\n")
	return sb.String()
}

// AnswerPrompt grounds the final answer in the retrieved context
type AnswerPrompt struct {
	Context     string
	ConvHistory string
	Question    string
}

func (p AnswerPrompt) Render() string {
	var sb strings.Builder
	sb.WriteString("\nYou are a famous, helpful, and enthusiastic bot who can answer a given question about my personal info based on the context provided. ")
	sb.WriteString("Try to find the answer in the context. ")
	sb.WriteString("If you really don't know the answer, say \"I'm sorry, I don't know the answer to that.\" ")
	sb.WriteString("Don't try to make up an answer. ")
	sb.WriteString("Respond like a famous celebrity-like also, make your answer short.\n")
	sb.WriteString("context: " + p.Context + "\n")
	sb.WriteString("conversation history: " + p.ConvHistory + "\n")
	sb.WriteString("question: " + p.Question + "\n")
	sb.WriteString("answer: \n")
	return sb.String()
}
