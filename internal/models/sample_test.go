package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenService(t *testing.T) {
	resp := &ServiceResponse{
		Timestamp: 11,
		Data: []ServiceDataInSecond{
			{
				Recorded:   10,
				Aggregated: ServiceStats{Requests: 5, Status2xx: 4, Status5xx: 1, RespBodyBytes: 100},
				Datacenter: map[string]ServiceStats{
					"NRT": {Requests: 2},
					"AMS": {Requests: 3},
				},
			},
		},
	}

	samples, err := FlattenService("svc", resp)
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, KindService, samples[0].Kind)
	assert.Equal(t, "svc", samples[0].ServiceID)
	assert.Equal(t, "", samples[0].POP)
	assert.Equal(t, uint64(5), samples[0].Requests)
	assert.Equal(t, uint64(4), samples[0].Status2xx)
	assert.Equal(t, uint64(1), samples[0].Status5xx)
	assert.Equal(t, uint64(100), samples[0].RespBodyBytes)

	assert.Equal(t, "AMS", samples[1].POP)
	assert.Equal(t, uint64(3), samples[1].Requests)
	assert.Equal(t, "NRT", samples[2].POP)

	var stats ServiceStats
	require.NoError(t, json.Unmarshal([]byte(samples[0].Payload), &stats))
	assert.Equal(t, resp.Data[0].Aggregated, stats)
}

func TestFlattenOrigin(t *testing.T) {
	resp := &OriginResponse{
		Data: []OriginDataInSecond{
			{
				Recorded: 20,
				Aggregated: map[string]OriginStats{
					"b": {Responses: 2},
					"a": {Responses: 1, Status4xx: 1},
				},
				Datacenter: map[string]map[string]OriginStats{
					"LHR": {"a": {Responses: 1}},
				},
			},
		},
	}

	samples, err := FlattenOrigin("svc", resp)
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, SampleID{Kind: KindOrigin, ServiceID: "svc", Recorded: 20, Origin: "a"}, samples[0].ID())
	assert.Equal(t, uint64(1), samples[0].Status4xx)
	assert.Equal(t, "b", samples[1].Origin)
	assert.Equal(t, uint64(2), samples[1].Requests)
	assert.Equal(t, SampleID{Kind: KindOrigin, ServiceID: "svc", Recorded: 20, POP: "LHR", Origin: "a"}, samples[2].ID())
}

func TestFlatten_NilResponse(t *testing.T) {
	samples, err := FlattenService("svc", nil)
	assert.NoError(t, err)
	assert.Nil(t, samples)

	samples, err = FlattenOrigin("svc", nil)
	assert.NoError(t, err)
	assert.Nil(t, samples)
}

func TestSampleFilter_Match(t *testing.T) {
	sample := &Sample{Kind: KindService, ServiceID: "svc", Recorded: 50, POP: "AMS"}

	tests := []struct {
		name   string
		filter SampleFilter
		want   bool
	}{
		{name: "empty filter", filter: SampleFilter{}, want: true},
		{name: "kind mismatch", filter: SampleFilter{Kind: KindOrigin}, want: false},
		{name: "service mismatch", filter: SampleFilter{ServiceID: "other"}, want: false},
		{name: "pop match", filter: SampleFilter{POP: "AMS"}, want: true},
		{name: "pop mismatch", filter: SampleFilter{POP: "NRT"}, want: false},
		{name: "aggregate only", filter: SampleFilter{AggregateOnly: true}, want: false},
		{name: "since inclusive", filter: SampleFilter{Since: 50}, want: true},
		{name: "since after", filter: SampleFilter{Since: 51}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(sample))
		})
	}
}

func TestSortSamples(t *testing.T) {
	samples := []*Sample{
		{Recorded: 1, POP: "B"},
		{Recorded: 2, POP: "B"},
		{Recorded: 2, POP: ""},
		{Recorded: 1, POP: "A"},
	}

	SortSamples(samples)

	assert.Equal(t, []SampleID{
		{Recorded: 2},
		{Recorded: 2, POP: "B"},
		{Recorded: 1, POP: "A"},
		{Recorded: 1, POP: "B"},
	}, []SampleID{samples[0].ID(), samples[1].ID(), samples[2].ID(), samples[3].ID()})
}
