package bybit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitloop-dev/triarb/internal/domain"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want MessageKind
	}{
		{
			name: "successful subscribe ack",
			raw:  `{"success":true,"ret_msg":"","op":"subscribe","conn_id":"abc"}`,
			want: KindAck,
		},
		{
			name: "rejected subscribe ack",
			raw:  `{"success":false,"ret_msg":"error:handler not found","op":"subscribe"}`,
			want: KindAck,
		},
		{
			name: "snapshot",
			raw:  `{"topic":"orderbook.50.BTCUSDT","type":"snapshot","ts":1,"data":{"s":"BTCUSDT","b":[["100","1"]],"a":[["101","2"]],"u":7}}`,
			want: KindSnapshot,
		},
		{
			name: "delta",
			raw:  `{"topic":"orderbook.50.BTCUSDT","type":"delta","ts":2,"data":{"s":"BTCUSDT","b":[],"a":[["101","0"]],"u":8}}`,
			want: KindDelta,
		},
		{
			name: "unrelated topic",
			raw:  `{"topic":"tickers.BTCUSDT","type":"snapshot","data":{}}`,
			want: KindUnknown,
		},
		{
			name: "pong",
			raw:  `{"op":"pong","args":["1670000000000"]}`,
			want: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg.Kind)
		})
	}
}

func TestParseSnapshotPayload(t *testing.T) {
	raw := `{"topic":"orderbook.50.ETHUSDT","type":"snapshot","data":{"s":"ETHUSDT","b":[["2000","3"],["1999","1"]],"a":[["2001","2"]],"u":42}}`

	msg, err := Parse([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, KindSnapshot, msg.Kind)

	assert.Equal(t, domain.UpdateSnapshot, msg.Update.Type)
	assert.Equal(t, "ETHUSDT", msg.Update.Symbol)
	assert.Equal(t, int64(42), msg.Update.Seq)
	assert.Equal(t, [][]string{{"2000", "3"}, {"1999", "1"}}, msg.Update.Bids)
	assert.Equal(t, [][]string{{"2001", "2"}}, msg.Update.Asks)
}

func TestParseAckFields(t *testing.T) {
	msg, err := Parse([]byte(`{"success":false,"ret_msg":"too many args","op":"subscribe"}`))
	require.NoError(t, err)
	require.Equal(t, KindAck, msg.Kind)
	assert.False(t, msg.Ack.Success)
	assert.Equal(t, "too many args", msg.Ack.RetMsg)
	assert.Equal(t, "subscribe", msg.Ack.Op)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`{not json`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"topic":"orderbook.50.BTCUSDT","type":"delta","data":{"u":"nope"}}`))
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "orderbook.50.BTCUSDT", Topic(50, "BTCUSDT"))
	assert.Equal(t, "orderbook.1.ETHBTC", Topic(1, "ETHBTC"))
}

func TestSpotSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/market/instruments-info", r.URL.Path)
		assert.Equal(t, "spot", r.URL.Query().Get("category"))
		_, _ = w.Write([]byte(`{
			"retCode":0,"retMsg":"OK",
			"result":{"list":[
				{"symbol":"BTCUSDT","status":"Trading"},
				{"symbol":"OLDUSDT","status":"Closed"},
				{"symbol":"ETHUSDT","status":"Trading"}
			]}
		}`))
	}))
	defer srv.Close()

	client := NewInstrumentsClient(srv.URL)
	symbols, err := client.SpotSymbols(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, symbols)
}

func TestSpotSymbolsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":10001,"retMsg":"params error","result":{}}`))
	}))
	defer srv.Close()

	_, err := NewInstrumentsClient(srv.URL).SpotSymbols(t.Context())
	assert.ErrorContains(t, err, "params error")
}
