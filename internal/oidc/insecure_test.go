package oidc

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fakeJWT(payload string) string {
	return "hdr." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".sig"
}

func TestInsecureVerifier_Claims(t *testing.T) {
	v := NewInsecureVerifier()
	exp := time.Now().Add(time.Minute).Unix()
	tok, err := v.Verify(context.Background(), fakeJWT(fmt.Sprintf(`{"sub":"editor","exp":%d}`, exp)))
	require.NoError(t, err)

	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "editor", claims["sub"])
}

func TestInsecureVerifier_Rejects(t *testing.T) {
	v := NewInsecureVerifier()
	ctx := context.Background()

	_, err := v.Verify(ctx, "only.two")
	require.Error(t, err)

	_, err = v.Verify(ctx, fakeJWT(`not json`))
	require.Error(t, err)

	past := time.Now().Add(-time.Minute).Unix()
	_, err = v.Verify(ctx, fakeJWT(fmt.Sprintf(`{"sub":"editor","exp":%d}`, past)))
	require.Error(t, err)
}
