package profile

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestUpdateCleansLists(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "Aki")
	svc := NewService(db, &config.Config{})

	p, err := svc.Update(u.ID, &UpdateRequest{
		DisplayName:   " Aki ",
		FavoriteMeals: []string{"ramen", " ramen", "sushi", ""},
		Areas:         []string{"Shibuya", "Ebisu"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Aki", p.DisplayName)
	assert.Equal(t, []string{"ramen", "sushi"}, []string(p.FavoriteMeals))

	got, err := svc.Get(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shibuya", got.MainArea())
}

func TestGetInCommunityHidesOutsiders(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.Community(t, db, "Office")
	member := testutil.Member(t, db, c, "Aki")
	outsider := testutil.User(t, db, "Ben")
	svc := NewService(db, &config.Config{})

	p, err := svc.GetInCommunity(member.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aki", p.DisplayName)

	_, err = svc.GetInCommunity(outsider.ID, c.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestSaveImage(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "Aki")
	dir := t.TempDir()
	svc := NewService(db, &config.Config{UploadDir: dir, PublicURL: "http://localhost:8080"})

	content := pngBytes(t)
	url, err := svc.SaveImage(u.ID, &Upload{Filename: "me.png", MimeType: "image/png", Size: int64(len(content)), Content: content})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/profiles/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	_, err = os.Stat(filepath.Join(dir, "profiles", filepath.Base(url)))
	assert.NoError(t, err)

	p, err := svc.Get(u.ID)
	require.NoError(t, err)
	assert.Equal(t, url, p.ImageURL)
}

func TestSaveImageRejects(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "Aki")
	svc := NewService(db, &config.Config{UploadDir: t.TempDir()})

	// declared as png but actually text
	text := []byte("definitely not an image")
	_, err := svc.SaveImage(u.ID, &Upload{Filename: "x.png", MimeType: "image/png", Size: int64(len(text)), Content: text})
	assert.ErrorIs(t, err, ErrImageType)

	_, err = svc.SaveImage(u.ID, &Upload{Filename: "big.png", Size: MaxImageSize + 1, Content: pngBytes(t)})
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = svc.SaveImage(u.ID, &Upload{Filename: "empty.png"})
	assert.ErrorIs(t, err, ErrImageEmpty)
}
