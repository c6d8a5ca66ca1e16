package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/paykeeper/internal/client/models"
	"github.com/dmitrijs2005/paykeeper/internal/client/services"
	"github.com/dmitrijs2005/paykeeper/internal/records"
	"github.com/gin-gonic/gin"
)

const queryParam = "query"

func (s *Server) collection(c *gin.Context) (services.Collection, bool) {
	col, err := s.entities.Collection(c.Param("entity"))
	if err != nil {
		fail(c, err)
		return services.Collection{}, false
	}
	return col, true
}

// list returns every record, or the result of ?query=<name>&<param>=<value>.
func (s *Server) list(c *gin.Context) {
	col, found := s.collection(c)
	if !found {
		return
	}

	var (
		recs []records.Record
		err  error
	)
	if name := c.Query(queryParam); name != "" {
		q := records.Query{Name: name, Params: map[string]string{}}
		for k, v := range c.Request.URL.Query() {
			if k != queryParam && len(v) > 0 {
				q.Params[k] = v[0]
			}
		}
		recs, err = col.Query(c.Request.Context(), q)
	} else {
		recs, err = col.GetAll(c.Request.Context())
	}
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, recs)
}

func (s *Server) get(c *gin.Context) {
	col, found := s.collection(c)
	if !found {
		return
	}
	rec, err := col.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

func (s *Server) save(c *gin.Context) {
	col, found := s.collection(c)
	if !found {
		return
	}
	var rec records.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		badRequest(c, "invalid JSON body: "+err.Error())
		return
	}

	status := http.StatusOK
	if rec.ID() == "" {
		status = http.StatusCreated
	}
	saved, err := col.Save(c.Request.Context(), rec)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, status, saved)
}

func (s *Server) remove(c *gin.Context) {
	col, found := s.collection(c)
	if !found {
		return
	}
	if err := col.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getSettings(c *gin.Context) {
	rec, err := s.entities.Settings.Get(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

func (s *Server) updateSettings(c *gin.Context) {
	var patch records.Record
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid JSON body: "+err.Error())
		return
	}
	rec, err := s.entities.Settings.Update(c.Request.Context(), patch)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

type unpaidTotal struct {
	OwnerID string `json:"ownerId"`
	Total   string `json:"total"`
}

func (s *Server) unpaidDebts(c *gin.Context) {
	ownerID := c.Param("ownerId")
	total, err := s.entities.Debts.GetTotalUnpaidByOwner(c.Request.Context(), ownerID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, unpaidTotal{OwnerID: ownerID, Total: total.StringFixed(2)})
}

func (s *Server) syncStatus(c *gin.Context) {
	ok(c, http.StatusOK, s.sync.Status())
}

type syncResponse struct {
	Outcome   string              `json:"outcome"`
	Succeeded int                 `json:"succeeded"`
	Retried   int                 `json:"retried"`
	Failed    int                 `json:"failed"`
	Conflicts int                 `json:"conflicts"`
	Skipped   int                 `json:"skipped"`
	Error     string              `json:"error,omitempty"`
	Status    services.SyncStatus `json:"status"`
}

func (s *Server) syncNow(c *gin.Context) {
	res, err := s.sync.SyncNow(c.Request.Context())
	if err != nil && res.Outcome == "" {
		fail(c, err)
		return
	}
	body := syncResponse{
		Outcome:   string(res.Outcome),
		Succeeded: res.Succeeded,
		Retried:   res.Retried,
		Failed:    res.Failed,
		Conflicts: res.Conflicts,
		Skipped:   res.Skipped,
		Status:    s.sync.Status(),
	}
	if res.Err != nil {
		body.Error = res.Err.Error()
	}
	ok(c, http.StatusOK, body)
}

type pendingResponse struct {
	Active      []*models.PendingChange `json:"active"`
	Quarantined []*models.PendingChange `json:"quarantined"`
}

func (s *Server) pending(c *gin.Context) {
	q, err := s.sync.Quarantined(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	active := s.sync.Pending()
	if active == nil {
		active = []*models.PendingChange{}
	}
	if q == nil {
		q = []*models.PendingChange{}
	}
	ok(c, http.StatusOK, pendingResponse{Active: active, Quarantined: q})
}

func (s *Server) retry(c *gin.Context) {
	if err := s.sync.Retry(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, s.sync.Status())
}

func (s *Server) discard(c *gin.Context) {
	if err := s.sync.Discard(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
