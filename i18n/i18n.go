// Package i18n holds the UI message catalogue and language negotiation.
package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLang is used when nothing better can be negotiated.
const DefaultLang = "fr"

var supported = []language.Tag{language.French, language.English}

var matcher = language.NewMatcher(supported)

var messages = map[string]map[string]string{
	"fr": {
		"required":                 "Requis",
		"not_nullable":             "Ne peut pas être vide",
		"too_long":                 "Trop long",
		"error_max":                "Trop long",
		"not_found":                "Introuvable",
		"invalid":                  "Invalide",
		"edit_senior_user":         "Modifier le senior",
		"senior_users":             "Seniors",
		"progress":                 "Progression",
		"select_user":              "Choisir un utilisateur",
		"select_health_plan":       "Choisir un plan de santé",
		"submit":                   "Enregistrer",
		"loading":                  "Chargement…",
		"edit":                     "Modifier",
		"login":                    "Connexion",
		"logout":                   "Déconnexion",
		"email":                    "E-mail",
		"user":                     "Utilisateur",
		"health_plan":              "Plan de santé",
		"none":                     "Aucun",
		"error_fetch":              "Impossible de charger l'enregistrement",
		"error_submit":             "L'enregistrement a échoué",
		"error_submit_in_progress": "Un enregistrement est déjà en cours",
		"error_unknown_user":       "Utilisateur inconnu",
		"error_list":               "Impossible de charger la liste",
		"error_unavailable":        "Service momentanément indisponible",
		"invalid_credentials":      "E-mail ou mot de passe invalide",
		"forbidden":                "Accès refusé",
		"password":                 "Mot de passe",
		"list_empty":               "Aucun senior pour le moment",
		"user_id":                  "Utilisateur",
		"health_plan_id":           "Plan de santé",
	},
	"en": {
		"required":                 "Required",
		"not_nullable":             "Cannot be empty",
		"too_long":                 "Too long",
		"error_max":                "Too long",
		"not_found":                "Not found",
		"invalid":                  "Invalid",
		"edit_senior_user":         "Edit Senior User",
		"senior_users":             "Senior Users",
		"progress":                 "Progress",
		"select_user":              "Select User",
		"select_health_plan":       "Select Health Plan",
		"submit":                   "Submit",
		"loading":                  "Loading…",
		"edit":                     "Edit",
		"login":                    "Log in",
		"logout":                   "Log out",
		"email":                    "Email",
		"user":                     "User",
		"health_plan":              "Health plan",
		"none":                     "None",
		"error_fetch":              "The record could not be loaded",
		"error_submit":             "Saving failed",
		"error_submit_in_progress": "A submission is already in progress",
		"error_unknown_user":       "Unknown user",
		"error_list":               "The list could not be loaded",
		"error_unavailable":        "Service temporarily unavailable",
		"invalid_credentials":      "Invalid email or password",
		"forbidden":                "Access denied",
		"password":                 "Password",
		"list_empty":               "No senior users yet",
		"user_id":                  "User",
		"health_plan_id":           "Health plan",
	},
}

// T translates code into lang, falling back to the default language and
// then to the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// DetectLanguage negotiates a supported language from an Accept-Language
// header value.
func DetectLanguage(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return DefaultLang
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLang
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// Normalize returns lang if it is supported, else DefaultLang.
func Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := messages[lang]; ok {
		return lang
	}
	return DefaultLang
}

type langKey struct{}

// WithLang stores the UI language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the UI language stored in ctx, or DefaultLang.
func LangFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(langKey{}).(string); ok && l != "" {
		return l
	}
	return DefaultLang
}
