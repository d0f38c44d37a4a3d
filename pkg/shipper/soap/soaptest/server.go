// Package soaptest provides a fake SOAP service for carrier tests.
package soaptest

import (
	"bytes"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/tournevent/kargo/pkg/shipper/soap"
)

// Call is one request received by the server.
type Call struct {
	Operation  string
	SOAPAction string
	// Params holds the operation element's children, normalized like replies.
	Params shipper.Result
}

// Fault makes the handler answer with a SOAP fault.
type Fault struct {
	Code   string
	String string
}

// Handler answers one operation. Returning a non-nil Fault sends a fault with
// HTTP 500; otherwise reply becomes the children of <operation>Response.
type Handler func(call Call) (reply soap.Fields, fault *Fault)

// Server is a running fake service.
type Server struct {
	*httptest.Server

	mu    sync.Mutex
	calls []Call
}

// NewServer starts a fake service that dispatches every request to h.
func NewServer(h Handler) *Server {
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		doc, err := soap.ParseDocument(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		call := Call{SOAPAction: r.Header.Get("SOAPAction")}
		if body, ok := shipper.Lookup(doc, "Envelope", "Body"); ok {
			if m, ok := body.(map[string]any); ok {
				for op, params := range m {
					call.Operation = op
					if p, ok := params.(map[string]any); ok {
						call.Params = shipper.Result(p)
					} else {
						call.Params = shipper.Result{}
					}
				}
			}
		}

		s.mu.Lock()
		s.calls = append(s.calls, call)
		s.mu.Unlock()

		reply, fault := h(call)
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		if fault != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write(envelope(soap.Fields{{Name: "soap:Fault", Value: soap.Fields{
				{Name: "faultcode", Value: fault.Code},
				{Name: "faultstring", Value: fault.String},
			}}}))
			return
		}
		_, _ = w.Write(envelope(soap.Fields{{Name: call.Operation + "Response", Value: reply}}))
	}))
	return s
}

// Calls returns the requests received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Operations returns the operation names received so far, in order.
func (s *Server) Operations() []string {
	var ops []string
	for _, c := range s.Calls() {
		ops = append(ops, c.Operation)
	}
	return ops
}

func envelope(body soap.Fields) []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	start := xml.StartElement{
		Name: xml.Name{Local: "soap:Envelope"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns:soap"}, Value: "http://schemas.xmlsoap.org/soap/envelope/"}},
	}
	_ = soap.Fields{{Name: "soap:Body", Value: body}}.MarshalXML(enc, start)
	_ = enc.Flush()
	return buf.Bytes()
}
