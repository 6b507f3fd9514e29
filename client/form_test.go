package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForm_RatingRequired(t *testing.T) {
	store := newStoreFixture(t, &reviewAPIStub{})
	form := NewReviewForm(store)
	form.Name = "Kusatsu"

	_, err := form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrRatingRequired)
}

func TestForm_NameRequired(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	store := NewReviewStore(New(server.URL, WithLogger(quietLogger())))
	form := NewReviewForm(store)
	form.Name = "   "
	form.Rating = 4.5

	_, err := form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Zero(t, calls.Load(), "missing name must be caught before any network call")
}

func TestForm_CoercesEmptyToNull(t *testing.T) {
	var captured map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/reviews" {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":1,"name":"Kusatsu","rating":4.5}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store := NewReviewStore(New(server.URL, WithLogger(quietLogger())))
	form := NewReviewForm(store)
	form.Name = "Kusatsu"
	form.Rating = 4.5
	form.Comment = "   "
	form.Quality = 5.0

	_, err := form.Submit(context.Background())
	require.NoError(t, err)

	for _, field := range []string{"comment", "visited_date", "scenery", "cleanliness", "service", "meal", "image_url"} {
		raw, present := captured[field]
		require.True(t, present, "field %s must be present", field)
		assert.Equal(t, "null", string(raw), "field %s must be null", field)
	}
	assert.Equal(t, "5", string(captured["quality"]))
}

func TestForm_DoubleSubmitGuard(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"name":"Kusatsu","rating":4.5}`))
	}))
	defer server.Close()

	store := NewReviewStore(New(server.URL, WithLogger(quietLogger())))
	form := NewReviewForm(store)
	form.Name = "Kusatsu"
	form.Rating = 4.5

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := form.Submit(context.Background())
		assert.NoError(t, err)
	}()

	// Give the first submission time to take the guard.
	time.Sleep(50 * time.Millisecond)
	_, err := form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)
	wg.Wait()

	// Guard resets once the submission completes; the draft was cleared by
	// the successful create, so refill it.
	form.Name = "Kusatsu"
	form.Rating = 4.5
	_, err = form.Submit(context.Background())
	assert.NoError(t, err)
}

func TestForm_ResetsAfterCreate(t *testing.T) {
	stub := &reviewAPIStub{}
	store := newStoreFixture(t, stub)
	form := NewReviewForm(store)
	form.Name = "Kusatsu"
	form.Rating = 4.5
	form.Comment = "great water"

	_, err := form.Submit(context.Background())
	require.NoError(t, err)

	assert.Empty(t, form.Name)
	assert.Zero(t, form.Rating)
	assert.Empty(t, form.Comment)
	assert.Nil(t, form.EditingID)
}

func TestForm_SeedFrom(t *testing.T) {
	store := newStoreFixture(t, &reviewAPIStub{})
	form := NewReviewForm(store)

	comment := "sulfur smell"
	img := "https://devstore.blob.core.windows.net/onsenreview-images/a.jpg"
	quality := 4.5
	form.SeedFrom(&Review{
		ID:       7,
		Name:     "Noboribetsu",
		Rating:   5,
		Comment:  &comment,
		Quality:  &quality,
		ImageURL: &img,
	})

	require.NotNil(t, form.EditingID)
	assert.Equal(t, int64(7), *form.EditingID)
	assert.Equal(t, "Noboribetsu", form.Name)
	assert.Equal(t, comment, form.Comment)
	assert.Equal(t, quality, form.Quality)
	assert.Zero(t, form.Scenery)
	assert.Equal(t, img, form.ExistingImageURL)
	assert.Nil(t, form.Image)

	form.Reset()
	assert.Nil(t, form.EditingID)
	assert.Empty(t, form.ExistingImageURL)
}

func TestForm_UploadsImageBeforeCreate(t *testing.T) {
	blob := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer blob.Close()

	var created Review
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/storage/generate-upload-url":
			_ = json.NewEncoder(w).Encode(UploadTicket{
				SASURL:  blob.URL + "/img.png?sig=token",
				BlobURL: blob.URL + "/img.png",
			})
		case "/reviews":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			created.ID = 1
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(created)
		}
	}))
	defer api.Close()

	store := NewReviewStore(New(api.URL, WithLogger(quietLogger())))
	form := NewReviewForm(store)
	form.Name = "Kusatsu"
	form.Rating = 4.5
	form.Image = &ImageFile{Name: "img.png", ContentType: "image/png", Data: []byte{1}}

	_, err := form.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, created.ImageURL)
	assert.Equal(t, blob.URL+"/img.png", *created.ImageURL)
}

func TestForm_UploadFailureAbortsSubmit(t *testing.T) {
	blob := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer blob.Close()

	var createCalls int
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/storage/generate-upload-url":
			_ = json.NewEncoder(w).Encode(UploadTicket{
				SASURL:  blob.URL + "/img.png?sig=token",
				BlobURL: blob.URL + "/img.png",
			})
		case "/reviews":
			createCalls++
		}
	}))
	defer api.Close()

	store := NewReviewStore(New(api.URL, WithLogger(quietLogger())))
	form := NewReviewForm(store)
	form.Name = "Kusatsu"
	form.Rating = 4.5
	form.Image = &ImageFile{Name: "img.png", Data: []byte{1}}

	_, err := form.Submit(context.Background())
	require.Error(t, err)
	assert.Zero(t, createCalls, "review must not be created when the upload fails")
	assert.Empty(t, store.Reviews())
}

func TestForm_EditKeepsExistingImage(t *testing.T) {
	var updated Review
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&updated))
		updated.ID = 7
		_ = json.NewEncoder(w).Encode(updated)
	}))
	defer api.Close()

	store := NewReviewStore(New(api.URL, WithLogger(quietLogger())))
	form := NewReviewForm(store)
	id := int64(7)
	form.EditingID = &id
	form.Name = "Kusatsu"
	form.Rating = 4.0
	form.ExistingImageURL = "https://devstore.blob.core.windows.net/onsenreview-images/old.jpg"

	_, err := form.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, updated.ImageURL)
	assert.Equal(t, form.ExistingImageURL, *updated.ImageURL)
}
