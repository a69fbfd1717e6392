package core

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/chemflow/equipctl/internal/apiclient"
	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/internal/testutil/collabfake"
	"github.com/chemflow/equipctl/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitUpload(t *testing.T) {
	fake := collabfake.New()
	defer fake.Close()
	client := apiclient.NewClient(fake.URL, "Token", 0, 1)
	file := schema.ValidFile{Name: "equipment.csv", MediaType: "text/csv"}

	t.Run("success builds snapshot", func(t *testing.T) {
		snap, err := SubmitUpload(context.Background(), client, signedIn(), file, strings.NewReader("type\nPump\n"))
		require.NoError(t, err)
		assert.Equal(t, collabfake.SampleSnapshot(), snap)
	})

	t.Run("missing credential sends nothing", func(t *testing.T) {
		before := fake.Count(apiclient.UploadPath)
		_, err := SubmitUpload(context.Background(), client, staticCreds{}, file, strings.NewReader("x"))
		assert.True(t, contract.IsKind(err, contract.AuthFailure))
		assert.Equal(t, before, fake.Count(apiclient.UploadPath))
	})

	t.Run("server failure", func(t *testing.T) {
		fake.SetStatus(apiclient.UploadPath, http.StatusInternalServerError)
		defer fake.SetStatus(apiclient.UploadPath, 0)
		_, err := SubmitUpload(context.Background(), client, signedIn(), file, strings.NewReader("x"))
		assert.True(t, contract.IsKind(err, contract.ServerFailure))
	})

	t.Run("mis-shaped body", func(t *testing.T) {
		fake.SetRawResponse(apiclient.UploadPath, []byte(`{"total_count": 3}`))
		defer fake.SetRawResponse(apiclient.UploadPath, nil)
		_, err := SubmitUpload(context.Background(), client, signedIn(), file, strings.NewReader("x"))
		assert.True(t, contract.IsKind(err, contract.ShapeFailure))
	})
}
