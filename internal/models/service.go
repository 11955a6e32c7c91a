package models

import "encoding/json"

// ServiceResponse is the real-time analytics payload of a single service.
type ServiceResponse struct {
	AggregateDelay uint64                `json:"aggregate_delay"` // Lag of entry timestamps behind wall clock, in seconds
	Data           []ServiceDataInSecond `json:"data"`            // One entry per second of traffic
	Timestamp      uint64                `json:"timestamp"`       // Value to use as the start of the next request
}

// GetTimestamp returns the timestamp the next consecutive request should start from.
func (r ServiceResponse) GetTimestamp() uint64 {
	return r.Timestamp
}

// UnmarshalJSON accepts both the snake_case and the PascalCase envelope keys.
func (r *ServiceResponse) UnmarshalJSON(data []byte) error {
	var aux struct {
		envelope
		Data []ServiceDataInSecond `json:"data"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = ServiceResponse{
		AggregateDelay: aux.aggregateDelay(),
		Data:           aux.Data,
		Timestamp:      aux.Timestamp,
	}
	return nil
}

// ServiceDataInSecond holds the measurements of a service for one second.
type ServiceDataInSecond struct {
	Recorded   uint64                  `json:"recorded"`             // Unix time the entry was generated at
	Aggregated ServiceStats            `json:"aggregated"`           // Measurements across all POPs
	Datacenter map[string]ServiceStats `json:"datacenter,omitempty"` // POP name -> measurements
}

// ServiceStats mirrors the real-time analytics measurement model.
// Fields missing from the payload stay at their zero value.
type ServiceStats struct {
	AttackBlockedReqBodyBytes       uint64            `json:"attack_blocked_req_body_bytes,omitempty"`
	AttackBlockedReqHeaderBytes     uint64            `json:"attack_blocked_req_header_bytes,omitempty"`
	AttackLoggedReqBodyBytes        uint64            `json:"attack_logged_req_body_bytes,omitempty"`
	AttackLoggedReqHeaderBytes      uint64            `json:"attack_logged_req_header_bytes,omitempty"`
	AttackPassedReqBodyBytes        uint64            `json:"attack_passed_req_body_bytes,omitempty"`
	AttackPassedReqHeaderBytes      uint64            `json:"attack_passed_req_header_bytes,omitempty"`
	AttackReqBodyBytes              uint64            `json:"attack_req_body_bytes,omitempty"`
	AttackReqHeaderBytes            uint64            `json:"attack_req_header_bytes,omitempty"`
	AttackRespSynthBytes            uint64            `json:"attack_resp_synth_bytes,omitempty"`
	BereqBodyBytes                  uint64            `json:"bereq_body_bytes,omitempty"`
	BereqHeaderBytes                uint64            `json:"bereq_header_bytes,omitempty"`
	BodySize                        uint64            `json:"body_size,omitempty"`
	ComputeBereqBodyBytes           uint64            `json:"compute_bereq_body_bytes,omitempty"`
	ComputeBereqErrors              uint64            `json:"compute_bereq_errors,omitempty"`
	ComputeBereqHeaderBytes         uint64            `json:"compute_bereq_header_bytes,omitempty"`
	ComputeBereqs                   uint64            `json:"compute_bereqs,omitempty"`
	ComputeBerespBodyBytes          uint64            `json:"compute_beresp_body_bytes,omitempty"`
	ComputeBerespHeaderBytes        uint64            `json:"compute_beresp_header_bytes,omitempty"`
	ComputeExecutionTimeMs          float64           `json:"compute_execution_time_ms,omitempty"`
	ComputeGlobalsLimitExceeded     uint64            `json:"compute_globals_limit_exceeded,omitempty"`
	ComputeGuestErrors              uint64            `json:"compute_guest_errors,omitempty"`
	ComputeHeapLimitExceeded        uint64            `json:"compute_heap_limit_exceeded,omitempty"`
	ComputeRAMUsed                  uint64            `json:"compute_ram_used,omitempty"`
	ComputeReqBodyBytes             uint64            `json:"compute_req_body_bytes,omitempty"`
	ComputeReqHeaderBytes           uint64            `json:"compute_req_header_bytes,omitempty"`
	ComputeRequestTimeMs            float64           `json:"compute_request_time_ms,omitempty"`
	ComputeRequests                 uint64            `json:"compute_requests,omitempty"`
	ComputeResourceLimitExceeded    uint64            `json:"compute_resource_limit_exceeded,omitempty"`
	ComputeRespBodyBytes            uint64            `json:"compute_resp_body_bytes,omitempty"`
	ComputeRespHeaderBytes          uint64            `json:"compute_resp_header_bytes,omitempty"`
	ComputeRespStatus1xx            uint64            `json:"compute_resp_status_1xx,omitempty"`
	ComputeRespStatus2xx            uint64            `json:"compute_resp_status_2xx,omitempty"`
	ComputeRespStatus3xx            uint64            `json:"compute_resp_status_3xx,omitempty"`
	ComputeRespStatus4xx            uint64            `json:"compute_resp_status_4xx,omitempty"`
	ComputeRespStatus5xx            uint64            `json:"compute_resp_status_5xx,omitempty"`
	ComputeRuntimeErrors            uint64            `json:"compute_runtime_errors,omitempty"`
	ComputeStackLimitExceeded       uint64            `json:"compute_stack_limit_exceeded,omitempty"`
	DeliverSubCount                 uint64            `json:"deliver_sub_count,omitempty"`
	DeliverSubTime                  float64           `json:"deliver_sub_time,omitempty"`
	EdgeHitRequests                 uint64            `json:"edge_hit_requests,omitempty"`
	EdgeHitRespBodyBytes            uint64            `json:"edge_hit_resp_body_bytes,omitempty"`
	EdgeHitRespHeaderBytes          uint64            `json:"edge_hit_resp_header_bytes,omitempty"`
	EdgeMissRequests                uint64            `json:"edge_miss_requests,omitempty"`
	EdgeMissRespBodyBytes           uint64            `json:"edge_miss_resp_body_bytes,omitempty"`
	EdgeMissRespHeaderBytes         uint64            `json:"edge_miss_resp_header_bytes,omitempty"`
	EdgeRequests                    uint64            `json:"edge_requests,omitempty"`
	EdgeRespBodyBytes               uint64            `json:"edge_resp_body_bytes,omitempty"`
	EdgeRespHeaderBytes             uint64            `json:"edge_resp_header_bytes,omitempty"`
	ErrorSubCount                   uint64            `json:"error_sub_count,omitempty"`
	ErrorSubTime                    float64           `json:"error_sub_time,omitempty"`
	Errors                          uint64            `json:"errors,omitempty"`
	FetchSubCount                   uint64            `json:"fetch_sub_count,omitempty"`
	FetchSubTime                    float64           `json:"fetch_sub_time,omitempty"`
	HashSubCount                    uint64            `json:"hash_sub_count,omitempty"`
	HashSubTime                     float64           `json:"hash_sub_time,omitempty"`
	HeaderSize                      uint64            `json:"header_size,omitempty"`
	HitRespBodyBytes                uint64            `json:"hit_resp_body_bytes,omitempty"`
	HitSubCount                     uint64            `json:"hit_sub_count,omitempty"`
	HitSubTime                      float64           `json:"hit_sub_time,omitempty"`
	Hits                            uint64            `json:"hits,omitempty"`
	HitsTime                        float64           `json:"hits_time,omitempty"`
	HTTP2                           uint64            `json:"http2,omitempty"`
	HTTP3                           uint64            `json:"http3,omitempty"`
	Imgopto                         uint64            `json:"imgopto,omitempty"`
	ImgoptoRespBodyBytes            uint64            `json:"imgopto_resp_body_bytes,omitempty"`
	ImgoptoRespHeaderBytes          uint64            `json:"imgopto_resp_header_bytes,omitempty"`
	ImgoptoShield                   uint64            `json:"imgopto_shield,omitempty"`
	ImgoptoShieldRespBodyBytes      uint64            `json:"imgopto_shield_resp_body_bytes,omitempty"`
	ImgoptoShieldRespHeaderBytes    uint64            `json:"imgopto_shield_resp_header_bytes,omitempty"`
	ImgoptoTransforms               uint64            `json:"imgopto_transforms,omitempty"`
	Imgvideo                        uint64            `json:"imgvideo,omitempty"`
	ImgvideoFrames                  uint64            `json:"imgvideo_frames,omitempty"`
	ImgvideoRespBodyBytes           uint64            `json:"imgvideo_resp_body_bytes,omitempty"`
	ImgvideoRespHeaderBytes         uint64            `json:"imgvideo_resp_header_bytes,omitempty"`
	ImgvideoShield                  uint64            `json:"imgvideo_shield,omitempty"`
	ImgvideoShieldFrames            uint64            `json:"imgvideo_shield_frames,omitempty"`
	ImgvideoShieldRespBodyBytes     uint64            `json:"imgvideo_shield_resp_body_bytes,omitempty"`
	ImgvideoShieldRespHeaderBytes   uint64            `json:"imgvideo_shield_resp_header_bytes,omitempty"`
	IPv6                            uint64            `json:"ipv6,omitempty"`
	Log                             uint64            `json:"log,omitempty"`
	LogBytes                        uint64            `json:"log_bytes,omitempty"`
	Logging                         uint64            `json:"logging,omitempty"`
	Miss                            uint64            `json:"miss,omitempty"`
	MissHistogram                   map[string]uint64 `json:"miss_histogram,omitempty"`
	MissRespBodyBytes               uint64            `json:"miss_resp_body_bytes,omitempty"`
	MissSubCount                    uint64            `json:"miss_sub_count,omitempty"`
	MissSubTime                     float64           `json:"miss_sub_time,omitempty"`
	MissTime                        float64           `json:"miss_time,omitempty"`
	ObjectSize100k                  uint64            `json:"object_size_100k,omitempty"`
	ObjectSize100m                  uint64            `json:"object_size_100m,omitempty"`
	ObjectSize10k                   uint64            `json:"object_size_10k,omitempty"`
	ObjectSize10m                   uint64            `json:"object_size_10m,omitempty"`
	ObjectSize1g                    uint64            `json:"object_size_1g,omitempty"`
	ObjectSize1k                    uint64            `json:"object_size_1k,omitempty"`
	ObjectSize1m                    uint64            `json:"object_size_1m,omitempty"`
	ObjectSizeOther                 uint64            `json:"object_size_other,omitempty"`
	OriginCacheFetchRespBodyBytes   uint64            `json:"origin_cache_fetch_resp_body_bytes,omitempty"`
	OriginCacheFetchRespHeaderBytes uint64            `json:"origin_cache_fetch_resp_header_bytes,omitempty"`
	OriginCacheFetches              uint64            `json:"origin_cache_fetches,omitempty"`
	OriginFetchBodyBytes            uint64            `json:"origin_fetch_body_bytes,omitempty"`
	OriginFetchHeaderBytes          uint64            `json:"origin_fetch_header_bytes,omitempty"`
	OriginFetchRespBodyBytes        uint64            `json:"origin_fetch_resp_body_bytes,omitempty"`
	OriginFetchRespHeaderBytes      uint64            `json:"origin_fetch_resp_header_bytes,omitempty"`
	OriginFetches                   uint64            `json:"origin_fetches,omitempty"`
	OriginRevalidations             uint64            `json:"origin_revalidations,omitempty"`
	OTFP                            uint64            `json:"otfp,omitempty"`
	OTFPDeliverTime                 float64           `json:"otfp_deliver_time,omitempty"`
	OTFPManifests                   uint64            `json:"otfp_manifests,omitempty"`
	OTFPRespBodyBytes               uint64            `json:"otfp_resp_body_bytes,omitempty"`
	OTFPRespHeaderBytes             uint64            `json:"otfp_resp_header_bytes,omitempty"`
	OTFPShield                      uint64            `json:"otfp_shield,omitempty"`
	OTFPShieldRespBodyBytes         uint64            `json:"otfp_shield_resp_body_bytes,omitempty"`
	OTFPShieldRespHeaderBytes       uint64            `json:"otfp_shield_resp_header_bytes,omitempty"`
	OTFPShieldTime                  float64           `json:"otfp_shield_time,omitempty"`
	Pass                            uint64            `json:"pass,omitempty"`
	PassRespBodyBytes               uint64            `json:"pass_resp_body_bytes,omitempty"`
	PassSubCount                    uint64            `json:"pass_sub_count,omitempty"`
	PassSubTime                     float64           `json:"pass_sub_time,omitempty"`
	PassTime                        float64           `json:"pass_time,omitempty"`
	PCI                             uint64            `json:"pci,omitempty"`
	PipeSubCount                    uint64            `json:"pipe_sub_count,omitempty"`
	PipeSubTime                     float64           `json:"pipe_sub_time,omitempty"`
	PredeliverSubCount              uint64            `json:"predeliver_sub_count,omitempty"`
	PredeliverSubTime               float64           `json:"predeliver_sub_time,omitempty"`
	PrehashSubCount                 uint64            `json:"prehash_sub_count,omitempty"`
	PrehashSubTime                  float64           `json:"prehash_sub_time,omitempty"`
	RecvSubCount                    uint64            `json:"recv_sub_count,omitempty"`
	RecvSubTime                     float64           `json:"recv_sub_time,omitempty"`
	ReqBodyBytes                    uint64            `json:"req_body_bytes,omitempty"`
	ReqHeaderBytes                  uint64            `json:"req_header_bytes,omitempty"`
	Requests                        uint64            `json:"requests,omitempty"`
	RespBodyBytes                   uint64            `json:"resp_body_bytes,omitempty"`
	RespHeaderBytes                 uint64            `json:"resp_header_bytes,omitempty"`
	Restarts                        uint64            `json:"restarts,omitempty"`
	SegblockOriginFetches           uint64            `json:"segblock_origin_fetches,omitempty"`
	SegblockShieldFetches           uint64            `json:"segblock_shield_fetches,omitempty"`
	Shield                          uint64            `json:"shield,omitempty"`
	ShieldCacheFetches              uint64            `json:"shield_cache_fetches,omitempty"`
	ShieldFetchBodyBytes            uint64            `json:"shield_fetch_body_bytes,omitempty"`
	ShieldFetchHeaderBytes          uint64            `json:"shield_fetch_header_bytes,omitempty"`
	ShieldFetchRespBodyBytes        uint64            `json:"shield_fetch_resp_body_bytes,omitempty"`
	ShieldFetchRespHeaderBytes      uint64            `json:"shield_fetch_resp_header_bytes,omitempty"`
	ShieldFetches                   uint64            `json:"shield_fetches,omitempty"`
	ShieldRespBodyBytes             uint64            `json:"shield_resp_body_bytes,omitempty"`
	ShieldRespHeaderBytes           uint64            `json:"shield_resp_header_bytes,omitempty"`
	ShieldRevalidations             uint64            `json:"shield_revalidations,omitempty"`
	Status1xx                       uint64            `json:"status_1xx,omitempty"`
	Status200                       uint64            `json:"status_200,omitempty"`
	Status204                       uint64            `json:"status_204,omitempty"`
	Status206                       uint64            `json:"status_206,omitempty"`
	Status2xx                       uint64            `json:"status_2xx,omitempty"`
	Status301                       uint64            `json:"status_301,omitempty"`
	Status302                       uint64            `json:"status_302,omitempty"`
	Status304                       uint64            `json:"status_304,omitempty"`
	Status3xx                       uint64            `json:"status_3xx,omitempty"`
	Status400                       uint64            `json:"status_400,omitempty"`
	Status401                       uint64            `json:"status_401,omitempty"`
	Status403                       uint64            `json:"status_403,omitempty"`
	Status404                       uint64            `json:"status_404,omitempty"`
	Status416                       uint64            `json:"status_416,omitempty"`
	Status429                       uint64            `json:"status_429,omitempty"`
	Status4xx                       uint64            `json:"status_4xx,omitempty"`
	Status500                       uint64            `json:"status_500,omitempty"`
	Status501                       uint64            `json:"status_501,omitempty"`
	Status502                       uint64            `json:"status_502,omitempty"`
	Status503                       uint64            `json:"status_503,omitempty"`
	Status504                       uint64            `json:"status_504,omitempty"`
	Status505                       uint64            `json:"status_505,omitempty"`
	Status5xx                       uint64            `json:"status_5xx,omitempty"`
	Synth                           uint64            `json:"synth,omitempty"`
	TLS                             uint64            `json:"tls,omitempty"`
	TLSV10                          uint64            `json:"tls_v10,omitempty"`
	TLSV11                          uint64            `json:"tls_v11,omitempty"`
	TLSV12                          uint64            `json:"tls_v12,omitempty"`
	TLSV13                          uint64            `json:"tls_v13,omitempty"`
	Uncacheable                     uint64            `json:"uncacheable,omitempty"`
	Video                           uint64            `json:"video,omitempty"`
	WAFBlocked                      uint64            `json:"waf_blocked,omitempty"`
	WAFLogged                       uint64            `json:"waf_logged,omitempty"`
	WAFPassed                       uint64            `json:"waf_passed,omitempty"`
}
