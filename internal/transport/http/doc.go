// Package http implements the HTTP handlers of the costsheet dashboard.
// Handlers stay thin: they decode and validate the request, call a service
// and render the result or an RFC 7807 problem.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Runner / Parser
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Handler Structure
//
//	func (h *Handler) HandleSomething(w http.ResponseWriter, r *http.Request) {
//	    var req v1.SomeRequest
//	    if err := h.validator.DecodeAndValidate(r, &req); err != nil {
//	        h.errors.HandleError(w, r, err)
//	        return
//	    }
//
//	    result, err := h.service.DoSomething(r.Context(), req)
//	    if err != nil {
//	        h.errors.HandleError(w, r, err)
//	        return
//	    }
//
//	    render.JSON(w, r, result)
//	}
//
// # Routes
//
//	GET  /api/health, /api/health/ready, /api/health/live, /api/version
//	GET  /api/config/status
//	PUT  /api/config/sheet-url
//	POST /api/extractions              start or join a live run
//	GET  /api/extractions              recent runs
//	GET  /api/extractions/{id}         one run
//	GET  /api/extractions/{id}/export  csv, xlsx or pdf download
//	POST /api/summaries                multipart file upload
//	POST /api/summaries/values         JSON list of raw cells
//	GET  /ws                           run progress stream
//	GET  /                             dashboard
package http
