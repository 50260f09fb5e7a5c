package music

import (
	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	msgNotInVoice        = "err.not_in_voice"
	msgConnectFailed     = "err.connect_failed"
	msgNoSession         = "err.no_session"
	msgEmptyQueue        = "err.empty_queue"
	msgInvalidRange      = "err.invalid_range"
	msgSearchUnavailable = "err.search_unavailable"
	msgNoResults         = "err.no_results"
	msgResolveFailed     = "err.resolve_failed"
	msgAborted           = "err.aborted"
	msgBusy              = "err.busy"
	msgGeneric           = "err.generic"

	msgJoined      = "join.ok"
	msgLeft        = "leave.ok"
	msgAdded       = "play.added"
	msgChooseTitle = "play.choose_title"
	msgChooseBody  = "play.choose_body"
	msgChoiceLine  = "play.choice_line"
	msgPickStale   = "play.pick_stale"
	msgPickOther   = "play.pick_other"
	msgPaused      = "pause.on"
	msgResumed     = "pause.off"
	msgSkipped     = "skip.ok"
	msgListTitle   = "list.title"
	msgListLine    = "list.line"
	msgListFooter  = "list.footer"
	msgListPaused  = "list.paused"
	msgListNoPage  = "list.no_page"
	msgErrorTitle  = "error.title"
)

var brazilian = language.MustParse("pt-BR")

var translations = map[language.Tag]map[string]string{
	language.English: {
		msgNotInVoice:        "Join a voice channel first.",
		msgConnectFailed:     "I could not join your voice channel. Try again.",
		msgNoSession:         "I'm not in a voice channel.",
		msgEmptyQueue:        "The queue is empty.",
		msgInvalidRange:      "There is nothing to skip in that range.",
		msgSearchUnavailable: "Search is unavailable right now.",
		msgNoResults:         "No results found.",
		msgResolveFailed:     "I could not load that track.",
		msgAborted:           "Something broke and the session was reset.",
		msgBusy:              "The queue is busy, try again.",
		msgGeneric:           "Something went wrong.",
		msgJoined:            "Joined <#%s>.",
		msgLeft:              "Left the voice channel.",
		msgAdded:             "%s added **%s** to the queue (#%d).",
		msgChooseTitle:       "Pick a track",
		msgChooseBody:        "Results for **%s**:",
		msgChoiceLine:        "%d. %s (%s)",
		msgPickStale:         "This choice has expired.",
		msgPickOther:         "Only the requester can pick.",
		msgPaused:            "Paused.",
		msgResumed:           "Resumed.",
		msgSkipped:           "Skipped %d track(s).",
		msgListTitle:         "Queue",
		msgListLine:          "%d. %s (%s)",
		msgListFooter:        "Page %d of %d, %d track(s)",
		msgListPaused:        "Playback is paused.",
		msgListNoPage:        "There is no page %d.",
		msgErrorTitle:        "🎵 Error",
	},
	brazilian: {
		msgNotInVoice:        "Entre em um canal de voz primeiro.",
		msgConnectFailed:     "Não consegui entrar no seu canal de voz. Tente de novo.",
		msgNoSession:         "Não estou em um canal de voz.",
		msgEmptyQueue:        "A fila está vazia.",
		msgInvalidRange:      "Não há nada para pular nesse intervalo.",
		msgSearchUnavailable: "A busca está indisponível no momento.",
		msgNoResults:         "Nenhum resultado encontrado.",
		msgResolveFailed:     "Não consegui carregar essa faixa.",
		msgAborted:           "Algo quebrou e a sessão foi reiniciada.",
		msgBusy:              "A fila está ocupada, tente de novo.",
		msgGeneric:           "Algo deu errado.",
		msgJoined:            "Entrei em <#%s>.",
		msgLeft:              "Saí do canal de voz.",
		msgAdded:             "%s adicionou **%s** à fila (#%d).",
		msgChooseTitle:       "Escolha uma faixa",
		msgChooseBody:        "Resultados para **%s**:",
		msgChoiceLine:        "%d. %s (%s)",
		msgPickStale:         "Esta escolha expirou.",
		msgPickOther:         "Só quem pediu pode escolher.",
		msgPaused:            "Pausado.",
		msgResumed:           "Retomado.",
		msgSkipped:           "%d faixa(s) pulada(s).",
		msgListTitle:         "Fila",
		msgListLine:          "%d. %s (%s)",
		msgListFooter:        "Página %d de %d, %d faixa(s)",
		msgListPaused:        "A reprodução está pausada.",
		msgListNoPage:        "Não existe a página %d.",
		msgErrorTitle:        "🎵 Erro",
	},
}

// Text picks reply language per interaction.
type Text struct {
	cat       catalog.Catalog
	supported []language.Tag
	matcher   language.Matcher
	fallback  language.Tag
}

// NewText builds the reply catalogs. fallback is used when the interaction
// locale matches nothing; an unparsable fallback means English.
func NewText(fallback string) *Text {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			_ = b.SetString(tag, key, msg)
		}
	}

	supported := []language.Tag{language.English, brazilian}
	fb, err := language.Parse(fallback)
	if err != nil {
		fb = language.English
	}
	_, idx, conf := language.NewMatcher(supported).Match(fb)
	if conf == language.No {
		idx = 0
	}
	return &Text{
		cat:       b,
		supported: supported,
		matcher:   language.NewMatcher(supported),
		fallback:  supported[idx],
	}
}

// Tag returns the best supported language for a Discord locale.
func (t *Text) Tag(locale discordgo.Locale) language.Tag {
	if locale == "" {
		return t.fallback
	}
	tag, err := language.Parse(string(locale))
	if err != nil {
		return t.fallback
	}
	_, idx, conf := t.matcher.Match(tag)
	if conf == language.No {
		return t.fallback
	}
	return t.supported[idx]
}

// Printer returns a printer for the interaction's locale.
func (t *Text) Printer(locale discordgo.Locale) *message.Printer {
	return message.NewPrinter(t.Tag(locale), message.Catalog(t.cat))
}
