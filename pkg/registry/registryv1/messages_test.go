package registryv1

import "testing"

func TestFetchRequestRoundTrip(t *testing.T) {
	in := &FetchRequest{Name: "widgets", Major: 1, Minor: 2, Patch: 3}
	b, err := in.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	var out FetchRequest
	if err := out.Unmarshal(b); err != nil {
		t.Fatal(err)
	}
	if out != *in {
		t.Fatalf("expected %+v, got %+v", in, out)
	}
}

func TestFetchResponseRoundTrip(t *testing.T) {
	in := &FetchResponse{NpkBytes: []byte{0x7F, 'N', 'P', 'K', 1, 2, 3}}
	b, err := in.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	var out FetchResponse
	if err := out.Unmarshal(b); err != nil {
		t.Fatal(err)
	}
	if string(out.NpkBytes) != string(in.NpkBytes) {
		t.Fatalf("expected %v, got %v", in.NpkBytes, out.NpkBytes)
	}
}

func TestPublishRoundTrip(t *testing.T) {
	req := &PublishRequest{NpkBytes: []byte("hello")}
	b, err := req.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	var gotReq PublishRequest
	if err := gotReq.Unmarshal(b); err != nil {
		t.Fatal(err)
	}
	if string(gotReq.NpkBytes) != "hello" {
		t.Fatalf("got %q", gotReq.NpkBytes)
	}

	resp := &PublishResponse{Ok: true}
	b, err = resp.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	var gotResp PublishResponse
	if err := gotResp.Unmarshal(b); err != nil {
		t.Fatal(err)
	}
	if !gotResp.Ok {
		t.Fatal("expected Ok=true")
	}
}
