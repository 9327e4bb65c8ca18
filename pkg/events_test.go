package eutelescope

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCollections(t *testing.T) {
	event := NewEvent(12, 34)
	event.AddCollection(NewCollection("zsdata", ZSDataDefaultEncoding))
	event.AddCollection(NewCollection("hits", HitEncoding))

	assert.Equal(t, []string{"hits", "zsdata"}, event.CollectionNames())

	c, err := event.GetCollection("hits")
	require.NoError(t, err)
	assert.Equal(t, HitEncoding, c.Encoding)

	_, err = event.GetCollection("missing")
	var notFound *ErrSourceNotFound
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing", notFound.Collection)
}

func TestCollectionCopy(t *testing.T) {
	source := NewCollection("source", ZSDataDefaultEncoding)
	source.Parameters["planes"] = []string{"1", "2"}
	source.Append(&TrackerData{CellID0: 1})
	source.Append(&TrackerData{CellID0: 2})

	target := &Collection{Name: "target"}
	target.CopyParametersFrom(source)
	target.CopyElementsFrom(source)

	assert.Equal(t, 2, target.Len())
	assert.Same(t, source.At(1), target.At(1))
	assert.Equal(t, []string{"1", "2"}, target.Parameters["planes"])

	source.Parameters["planes"][0] = "9"
	assert.Equal(t, "1", target.Parameters["planes"][0])
}

func TestCellIDWords(t *testing.T) {
	low, high := SplitCellID(0x0000000500000007)
	assert.Equal(t, uint32(7), low)
	assert.Equal(t, uint32(5), high)
	assert.Equal(t, uint64(0x0000000500000007), CellID(&TrackerHit{CellID0: low, CellID1: high}))
}

func TestMetricsHandler(t *testing.T) {
	hitsProcessed.WithLabelValues("metrics_test").Inc()

	recorder := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	body := recorder.Body.String()
	assert.Equal(t, 200, recorder.Code)
	assert.True(t, strings.Contains(body, `eutel_hits_processed_total{collection="metrics_test"} 1`), body)
	assert.Contains(t, body, "eutel_hot_pixels")
}
