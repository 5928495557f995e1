// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package locale holds the user-visible strings in every supported language.
package locale

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// DefaultLanguage is used when the configured language is unknown.
var DefaultLanguage = language.BrazilianPortuguese

// Message keys.
const (
	StreamError     = "stream.error"
	StreamCancelled = "stream.cancelled"

	StatusOnline   = "status.online"
	StatusThinking = "status.thinking"
	StatusSpeaking = "status.speaking"

	ThinkingLabel     = "thinking.label"
	ThinkingIndicator = "thinking.indicator"
	ModelLabel        = "model.label"
	SpeechLabel       = "speech.label"
	On                = "toggle.on"
	Off               = "toggle.off"

	InputPlaceholder = "input.placeholder"
	WelcomeTitle     = "welcome.title"
	WelcomeBody      = "welcome.body"
	WelcomeHint      = "welcome.hint"
	Disclaimer       = "disclaimer"

	ClearBlocked  = "clear.blocked"
	ClearDone     = "clear.done"
	AttachCount   = "attach.count"
	AttachFailed  = "attach.failed"
	ExportDone    = "export.done"
	SpeakNothing  = "speak.nothing"
	DetachDone    = "detach.done"
	DetachFailed  = "detach.failed"
	MissingAPIKey = "config.missing_key"

	ModelChanged    = "model.changed"
	ThinkingChanged = "thinking.changed"
	UnknownCommand  = "command.unknown"
	CancelDone      = "cancel.done"
	CancelNothing   = "cancel.nothing"
	SpeakStarted    = "speak.started"
	ConfigReloaded  = "config.reloaded"
	Goodbye         = "goodbye"
	HelpTitle       = "help.title"
)

type entry struct {
	key string
	pt  string
	en  string
}

var entries = []entry{
	{StreamError,
		"\n\n[Erro: Não foi possível gerar a resposta. Verifique sua chave de API ou conexão.]",
		"\n\n[Error: Could not generate a response. Check your API key or connection.]"},
	{StreamCancelled, "\n\n[Resposta interrompida.]", "\n\n[Response cancelled.]"},

	{StatusOnline, "Online", "Online"},
	{StatusThinking, "Pensando", "Thinking"},
	{StatusSpeaking, "Falando", "Speaking"},

	{ThinkingLabel, "Raciocínio", "Reasoning"},
	{ThinkingIndicator, "Gemini está pensando...", "Gemini is thinking..."},
	{ModelLabel, "Modelo Ativo", "Active model"},
	{SpeechLabel, "Síntese de Voz", "Speech"},
	{On, "ativado", "on"},
	{Off, "desativado", "off"},

	{InputPlaceholder, "Pergunte qualquer coisa ao Gemini...", "Ask Gemini anything..."},
	{WelcomeTitle, "Bem-vindo ao Gemini Nova", "Welcome to Gemini Nova"},
	{WelcomeBody,
		"Eu sou seu assistente virtual multimodal. Posso ver imagens, raciocinar sobre problemas complexos e falar com você.",
		"I am your multimodal virtual assistant. I can see images, reason about complex problems and talk with you."},
	{WelcomeHint, "Pressione qualquer tecla para começar", "Press any key to start"},
	{Disclaimer,
		"O Gemini pode exibir informações imprecisas, inclusive sobre pessoas, por isso verifique suas respostas.",
		"Gemini may display inaccurate info, including about people, so double-check its responses."},

	{ClearBlocked,
		"Uma resposta está em andamento. Pressione novamente para interromper e limpar.",
		"A response is in progress. Press again to cancel and clear."},
	{ClearDone, "Conversa limpa.", "Conversation cleared."},
	{AttachFailed, "Não foi possível anexar a imagem: %v", "Could not attach image: %v"},
	{ExportDone, "Conversa exportada para %s", "Conversation exported to %s"},
	{SpeakNothing, "Nenhuma resposta para falar.", "No reply to speak yet."},
	{DetachFailed, "Nenhuma imagem anexada na posição %s.", "No attached image at position %s."},
	{MissingAPIKey,
		"Chave de API ausente. Defina NOVA_API_KEY ou GEMINI_API_KEY.",
		"API key is missing. Set NOVA_API_KEY or GEMINI_API_KEY."},

	{ModelChanged, "Modelo alterado para %s.", "Model switched to %s."},
	{ThinkingChanged, "Raciocínio %s.", "Reasoning %s."},
	{UnknownCommand, "Comando desconhecido: %s (digite /help)", "Unknown command: %s (type /help)"},
	{CancelDone, "Resposta interrompida.", "Response cancelled."},
	{CancelNothing, "Nenhuma resposta em andamento.", "No response in progress."},
	{SpeakStarted, "Falando...", "Speaking..."},
	{ConfigReloaded, "Configuração recarregada.", "Configuration reloaded."},
	{Goodbye, "Até logo!", "Goodbye!"},
	{HelpTitle, "Comandos", "Commands"},
}

var cat = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(DefaultLanguage))
	for _, e := range entries {
		_ = b.SetString(language.BrazilianPortuguese, e.key, e.pt)
		_ = b.SetString(language.English, e.key, e.en)
	}

	_ = b.Set(language.BrazilianPortuguese, AttachCount, plural.Selectf(1, "%d",
		"=1", "1 imagem anexada",
		"other", "%d imagens anexadas",
	))
	_ = b.Set(language.English, AttachCount, plural.Selectf(1, "%d",
		"=1", "1 image attached",
		"other", "%d images attached",
	))

	_ = b.Set(language.BrazilianPortuguese, DetachDone, plural.Selectf(2, "%d",
		"=0", "Imagem %[1]d removida. Nenhuma imagem anexada.",
		"=1", "Imagem %[1]d removida. 1 imagem anexada.",
		"other", "Imagem %[1]d removida. %[2]d imagens anexadas.",
	))
	_ = b.Set(language.English, DetachDone, plural.Selectf(2, "%d",
		"=0", "Image %[1]d removed. No images attached.",
		"=1", "Image %[1]d removed. 1 image attached.",
		"other", "Image %[1]d removed. %[2]d images attached.",
	))
	return b
}

// =============================================================================
// LOCALIZER
// =============================================================================

// Localizer formats messages for one language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Localizer for the closest supported match to lang
// (a BCP 47 tag such as "pt-BR" or "en").
func New(lang string) *Localizer {
	tag := DefaultLanguage
	if parsed, err := language.Parse(lang); err == nil {
		_, idx, conf := cat.Matcher().Match(parsed)
		if conf != language.No {
			tag = cat.Languages()[idx]
		}
	}
	return &Localizer{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}
}

// Tag returns the resolved language.
func (l *Localizer) Tag() language.Tag {
	return l.tag
}

// Text formats the message stored under key.
func (l *Localizer) Text(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}

// ErrorSuffix is appended to a model message whose turn failed.
func (l *Localizer) ErrorSuffix() string {
	return l.Text(StreamError)
}

// CancelledSuffix is appended to a model message whose turn was cancelled.
func (l *Localizer) CancelledSuffix() string {
	return l.Text(StreamCancelled)
}

// Toggle renders a boolean as on/off.
func (l *Localizer) Toggle(v bool) string {
	if v {
		return l.Text(On)
	}
	return l.Text(Off)
}

// Supported lists the languages with a full catalog.
func Supported() []language.Tag {
	return cat.Languages()
}
