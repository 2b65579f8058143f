package register

import "github.com/go-chi/chi/v5"

// Routes returns the signup and verification routes.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeRegisterForm)
	r.Post("/", h.HandleRegister)
	r.Get("/verify", h.ServeVerifyForm)
	r.Post("/verify", h.HandleVerifyEmail)
	r.Post("/resend", h.HandleResendCode)
	r.Get("/whatsapp", h.ServeWhatsAppForm)
	r.Post("/whatsapp", h.HandleWhatsAppVerify)
	return r
}
