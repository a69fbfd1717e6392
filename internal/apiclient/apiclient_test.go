package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/internal/testutil/collabfake"
	"github.com/chemflow/equipctl/schema"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFake(t *testing.T) (*collabfake.Server, *Client) {
	t.Helper()
	fake := collabfake.New()
	t.Cleanup(fake.Close)
	return fake, NewClient(fake.URL, "Token", 0, 1)
}

func TestUpload_SendsMultipartWithCredential(t *testing.T) {
	fake, client := newFake(t)

	file := schema.ValidFile{Name: "equipment.csv", MediaType: "text/csv"}
	body, err := client.Upload(context.Background(), collabfake.Token, file, strings.NewReader("type,pressure\nPump,3\n"))
	require.NoError(t, err)

	var got schema.StatsSnapshot
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 42, got.TotalCount)

	upload := fake.LastUpload()
	assert.Equal(t, "equipment.csv", upload.Filename)
	assert.Equal(t, "text/csv", upload.ContentType)
	assert.Contains(t, upload.Content, "Pump,3")
	assert.Equal(t, "Token "+collabfake.Token, fake.Authorization(UploadPath))
	assert.Equal(t, 1, fake.Count(UploadPath))
}

func TestUpload_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   contract.FailureKind
	}{
		{"server error", http.StatusInternalServerError, contract.ServerFailure},
		{"bad request", http.StatusBadRequest, contract.ServerFailure},
		{"unauthorized", http.StatusUnauthorized, contract.AuthFailure},
		{"forbidden", http.StatusForbidden, contract.AuthFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, client := newFake(t)
			fake.SetStatus(UploadPath, tt.status)

			_, err := client.Upload(context.Background(), collabfake.Token,
				schema.ValidFile{Name: "a.csv"}, strings.NewReader("x"))
			require.Error(t, err)
			assert.Equal(t, tt.kind, contract.KindOf(err))

			var pe *contract.PipelineError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.status, pe.Status)
			assert.Equal(t, 1, fake.Count(UploadPath), "no retry")
		})
	}
}

func TestUpload_InvalidTokenIsAuthFailure(t *testing.T) {
	fake, client := newFake(t)
	_, err := client.Upload(context.Background(), "wrong", schema.ValidFile{Name: "a.csv"}, strings.NewReader("x"))
	assert.True(t, contract.IsKind(err, contract.AuthFailure))
	assert.Contains(t, err.Error(), "Invalid token.")
	assert.Equal(t, 1, fake.Count(UploadPath))
}

func TestFetchRecords_Timeout(t *testing.T) {
	fake, client := newFake(t)
	fake.SetDelay(2 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchRecords(ctx, collabfake.Token)
	assert.True(t, contract.IsKind(err, contract.TimeoutFailure), "got %v", err)
}

func TestFetchRecords_NetworkFailure(t *testing.T) {
	fake, client := newFake(t)
	fake.Close()

	_, err := client.FetchRecords(context.Background(), collabfake.Token)
	assert.True(t, contract.IsKind(err, contract.NetworkFailure), "got %v", err)
}

func TestFetchRecords_ReturnsPayload(t *testing.T) {
	fake, client := newFake(t)
	fake.SetRecords(collabfake.SampleSnapshot())

	data, err := client.FetchRecords(context.Background(), collabfake.Token)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"resultData"`)
	assert.Contains(t, string(data), `"Reactors"`)
}

func TestDownload_StreamsDocument(t *testing.T) {
	fake, client := newFake(t)

	req := schema.ExportRequest{
		ChartImage: "aW1n",
		Stats:      collabfake.SampleSnapshot(),
		CreatedAt:  "2024-05-01T10:00:00Z",
		Identity:   "ada@example.com",
	}
	stream, contentType, err := client.Download(context.Background(), collabfake.Token, req)
	require.NoError(t, err)
	defer stream.Close() //nolint:errcheck

	content, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, collabfake.FakePDF, content)
	assert.Equal(t, "application/pdf", contentType)

	sent := fake.LastExport()
	assert.Equal(t, "aW1n", sent.ChartImage)
	assert.Equal(t, "2024-05-01T10:00:00Z", sent.CreatedAt)
	assert.Equal(t, 42, sent.Stats.TotalCount)
}

func TestLogin(t *testing.T) {
	_, client := newFake(t)

	resp, err := client.Login(context.Background(), schema.LoginRequest{Username: collabfake.Username, Password: collabfake.Password})
	require.NoError(t, err)
	assert.Equal(t, collabfake.Token, resp.Token)
	assert.Equal(t, "ada@example.com", resp.User.Email)

	_, err = client.Login(context.Background(), schema.LoginRequest{Username: collabfake.Username, Password: "nope"})
	assert.True(t, contract.IsKind(err, contract.AuthFailure))
	assert.Contains(t, err.Error(), "Invalid Credentials")
}

func TestSignupAndLogout(t *testing.T) {
	fake, client := newFake(t)

	require.NoError(t, client.Signup(context.Background(), schema.SignupRequest{
		Username: "new", Password: "pw", Email: "new@example.com",
	}))
	require.Len(t, fake.Signups(), 1)
	assert.Equal(t, "new@example.com", fake.Signups()[0].Email)

	err := client.Signup(context.Background(), schema.SignupRequest{})
	assert.True(t, contract.IsKind(err, contract.ServerFailure))

	require.NoError(t, client.Logout(context.Background(), collabfake.Token))
	assert.True(t, fake.LoggedOut())
}

func TestRequestIDHeader(t *testing.T) {
	fake, client := newFake(t)

	_, err := client.FetchRecords(context.Background(), collabfake.Token)
	require.NoError(t, err)
	first := fake.RequestID(RecordPath)
	_, err = uuid.Parse(first)
	require.NoError(t, err)

	_, err = client.FetchRecords(context.Background(), collabfake.Token)
	require.NoError(t, err)
	assert.NotEqual(t, first, fake.RequestID(RecordPath))
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := &contract.Config{ServerURL: "http://example.com/", AuthScheme: "Bearer", RateLimit: 2, RateBurst: 3}
	client := NewClientFromConfig(cfg)
	assert.Equal(t, "http://example.com", client.baseURL)
	assert.Equal(t, "Bearer", client.scheme)
	assert.Equal(t, 3, client.limiter.Burst())
}
