package controllers

import (
	"net/http"

	"github.com/angelmondragon/cakeshop-backend/api/responses"
)

const welcomeMessage = "Welcome to E-commerce API!"

func Home() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"message": welcomeMessage})
	}
}
