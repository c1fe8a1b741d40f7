// Package share builds deep links for sharing a referral code.
package share

import (
	"fmt"
	"net/url"
)

// Links are the share targets offered to a user.
type Links struct {
	URL      string `json:"url"`
	WhatsApp string `json:"whatsapp"`
	SMS      string `json:"sms"`
	Email    string `json:"email"`
	Message  string `json:"message"`
}

// Build returns share links for code, pointing at baseURL's signup page.
func Build(baseURL, code, referrerName string) Links {
	signup := fmt.Sprintf("%s/cadastro?ref=%s", baseURL, url.QueryEscape(code))
	msg := fmt.Sprintf("Use meu código %s no Ponto X e ganhe pontos no cadastro! %s", code, signup)
	if referrerName != "" {
		msg = fmt.Sprintf("%s te convidou para o Ponto X. Use o código %s e ganhe pontos no cadastro! %s", referrerName, code, signup)
	}
	subject := "Convite para o Ponto X"
	return Links{
		URL:      signup,
		WhatsApp: "https://wa.me/?text=" + url.QueryEscape(msg),
		SMS:      "sms:?body=" + url.QueryEscape(msg),
		Email:    "mailto:?subject=" + url.PathEscape(subject) + "&body=" + url.PathEscape(msg),
		Message:  msg,
	}
}
