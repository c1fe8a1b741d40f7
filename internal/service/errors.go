package service

import "net/http"

// Error is a failure callers can render: a stable code, a user-facing message and the HTTP status.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string { return e.Message }

func newError(status int, code, message string) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

var (
	ErrUserNotFound       = newError(http.StatusNotFound, "user_not_found", "usuário não encontrado")
	ErrInvalidReason      = newError(http.StatusBadRequest, "invalid_reason", "motivo de pontuação inválido")
	ErrZeroPoints         = newError(http.StatusBadRequest, "zero_points", "a quantidade de pontos não pode ser zero")
	ErrInsufficientPoints = newError(http.StatusUnprocessableEntity, "insufficient_points", "pontos insuficientes")

	ErrRewardNotFound      = newError(http.StatusNotFound, "reward_not_found", "recompensa não encontrada")
	ErrRewardInactive      = newError(http.StatusConflict, "reward_inactive", "recompensa indisponível")
	ErrRedemptionNotFound  = newError(http.StatusNotFound, "redemption_not_found", "resgate não encontrado")
	ErrRedemptionNotActive = newError(http.StatusConflict, "redemption_not_active", "resgate já utilizado ou expirado")

	ErrInvalidReferralCode  = newError(http.StatusBadRequest, "invalid_referral_code", "código de indicação inválido")
	ErrReferralCodeNotFound = newError(http.StatusNotFound, "referral_code_not_found", "código de indicação não encontrado")
	ErrSelfReferral         = newError(http.StatusBadRequest, "self_referral", "você não pode usar o seu próprio código")
	ErrAlreadyReferred      = newError(http.StatusConflict, "already_referred", "usuário já foi indicado")

	ErrSpotNotFound       = newError(http.StatusNotFound, "spot_not_found", "ponto turístico não encontrado")
	ErrSpotInactive       = newError(http.StatusConflict, "spot_inactive", "ponto turístico inativo")
	ErrInvalidSpot        = newError(http.StatusBadRequest, "invalid_spot", "dados do ponto turístico inválidos")
	ErrInvalidCoordinates = newError(http.StatusBadRequest, "invalid_coordinates", "coordenadas inválidas")
	ErrTooFar             = newError(http.StatusUnprocessableEntity, "too_far", "você está longe demais do ponto turístico")
	ErrAlreadyCheckedIn   = newError(http.StatusConflict, "already_checked_in", "check-in já realizado hoje neste ponto")
	ErrUploadUnavailable  = newError(http.StatusServiceUnavailable, "upload_unavailable", "upload de imagens não configurado")

	ErrInvalidRating   = newError(http.StatusBadRequest, "invalid_rating", "a nota deve ser de 1 a 5")
	ErrAlreadyReviewed = newError(http.StatusConflict, "already_reviewed", "você já avaliou este ponto")

	ErrEmailExists      = newError(http.StatusConflict, "email_exists", "e-mail já cadastrado")
	ErrInvalidEmail     = newError(http.StatusBadRequest, "invalid_email", "e-mail inválido")
	ErrInvalidName      = newError(http.StatusBadRequest, "invalid_name", "nome obrigatório")
	ErrWeakPassword     = newError(http.StatusBadRequest, "weak_password", "a senha deve ter pelo menos 8 caracteres")
	ErrInvalidCreds     = newError(http.StatusUnauthorized, "invalid_credentials", "e-mail ou senha inválidos")
	ErrPasswordNotSet   = newError(http.StatusBadRequest, "password_not_set", "conta usa login com Google; defina uma senha primeiro")
	ErrInvalidToken     = newError(http.StatusUnauthorized, "invalid_token", "token inválido ou expirado")
	ErrInvalidTimeframe = newError(http.StatusBadRequest, "invalid_timeframe", "período inválido")
	ErrInvalidPeriod    = newError(http.StatusBadRequest, "invalid_period", "agrupamento inválido")
	ErrInvalidSetting   = newError(http.StatusBadRequest, "invalid_setting", "configuração inválida")

	ErrNotificationNotFound = newError(http.StatusNotFound, "notification_not_found", "notificação não encontrada")
	ErrGoogleNotConfigured  = newError(http.StatusServiceUnavailable, "google_not_configured", "login com Google não configurado")
)
