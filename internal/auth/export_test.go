package auth

// SetTokenInfoEndpoint redirects token verification at a stub server and
// returns a restore function.
func SetTokenInfoEndpoint(url string) func() {
	old := tokenInfoEndpoint
	tokenInfoEndpoint = url
	return func() { tokenInfoEndpoint = old }
}
