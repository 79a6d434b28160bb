package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"agrimarket/models"
)

func TestJWT_RoundTrip(t *testing.T) {
	uid := primitive.NewObjectID()

	tok, err := signJWT("secret", uid, models.RoleAnalyst)
	require.NoError(t, err)

	gotID, err := parseJWT("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, uid, gotID)
}

func TestJWT_WrongSecret(t *testing.T) {
	tok, err := signJWT("secret", primitive.NewObjectID(), models.RoleFarmer)
	require.NoError(t, err)

	_, err = parseJWT("other", tok)
	assert.Error(t, err)
}

func TestJWT_Garbage(t *testing.T) {
	_, err := parseJWT("secret", "not.a.token")
	assert.Error(t, err)
}
