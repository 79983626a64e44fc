package service

import (
	"net/url"
	"strings"
)

// Local routes the controller navigates to. The HTTP surface registers the
// same paths.

func realmPrefix(realm string) string {
	return "/realms/" + url.PathEscape(realm)
}

func LoginPath(realm string) string {
	return realmPrefix(realm) + "/authentication/login"
}

func CallbackPath(realm string) string {
	return realmPrefix(realm) + "/authentication/callback"
}

func OverviewPath(realm string) string {
	return realmPrefix(realm) + "/overview"
}

func RequiredActionPath(realm, execution, token string) string {
	q := url.Values{"execution": {strings.ToLower(execution)}}
	if token != "" {
		q.Set("client_data", token)
	}
	return realmPrefix(realm) + "/authentication/required-action?" + q.Encode()
}

func OTPChallengePath(realm, token string) string {
	path := realmPrefix(realm) + "/authentication/otp"
	if token == "" {
		return path
	}
	return path + "?" + url.Values{"token": {token}}.Encode()
}
