package llm

import "fmt"

// CloudSystemPrompt はクラウドバックエンド向けのシステムプロンプトを返す
func CloudSystemPrompt(language string) string {
	return fmt.Sprintf("You are a helpful coding assistant. Generate only the %s code for the following prompt. Do not include any explanatory text or markdown formatting around the code. Just output the raw code.", language)
}

// LocalSystemPrompt はローカルサーバー向けのシステムプロンプトを返す
func LocalSystemPrompt(language string) string {
	return fmt.Sprintf("You are a helpful coding assistant. Generate only the %s code for the following prompt. Do not include any explanatory text or markdown formatting around the code. Just output the raw code block.", language)
}
