package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

// =============================================================================
// HIERARCHY ROUTES
// =============================================================================
//
// Templates and rosters expose the same group / sub-group / shift editing
// surface. The only differences are the container key ({id} or {date}) and
// the aggregate returned, so the routes are mounted once per container from
// the services' method values.

type hierarchyOps[T any] struct {
	AddGroup    func(ctx context.Context, key string, in schedule.NewGroupInput) (T, error)
	UpdateGroup func(ctx context.Context, key string, groupID int, p schedule.GroupPatch) (T, error)
	DeleteGroup func(ctx context.Context, key string, groupID int) (T, error)
	CloneGroup  func(ctx context.Context, key string, groupID int) (T, error)

	AddSubGroup    func(ctx context.Context, key string, groupID int, in schedule.NewSubGroupInput) (T, error)
	UpdateSubGroup func(ctx context.Context, key string, groupID, subGroupID int, p schedule.SubGroupPatch) (T, error)
	DeleteSubGroup func(ctx context.Context, key string, groupID, subGroupID int) (T, error)
	CloneSubGroup  func(ctx context.Context, key string, groupID, subGroupID int) (T, error)

	AddShift    func(ctx context.Context, key string, groupID, subGroupID int, in schedule.NewShiftInput) (T, error)
	UpdateShift func(ctx context.Context, key string, path schedule.ShiftPath, p schedule.ShiftPatch) (T, error)
	DeleteShift func(ctx context.Context, key string, path schedule.ShiftPath) (T, error)
	CloneShift  func(ctx context.Context, key string, path schedule.ShiftPath) (T, error)
}

// mountHierarchy registers the editing routes on r, which must already be
// scoped to one container whose key is the URL parameter keyParam.
func mountHierarchy[T any](r chi.Router, keyParam string, ops hierarchyOps[T]) {
	key := func(req *http.Request) string { return chi.URLParam(req, keyParam) }

	r.Route("/groups", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var in schedule.NewGroupInput
			if !decode(w, req, &in) {
				return
			}
			respond(w, http.StatusCreated)(ops.AddGroup(req.Context(), key(req), in))
		})

		r.Route("/{gid}", func(r chi.Router) {
			r.Put("/", func(w http.ResponseWriter, req *http.Request) {
				var p schedule.GroupPatch
				gid, ok := intParam(w, req, "gid")
				if !ok || !decode(w, req, &p) {
					return
				}
				respond(w, http.StatusOK)(ops.UpdateGroup(req.Context(), key(req), gid, p))
			})
			r.Delete("/", func(w http.ResponseWriter, req *http.Request) {
				if gid, ok := intParam(w, req, "gid"); ok {
					respond(w, http.StatusOK)(ops.DeleteGroup(req.Context(), key(req), gid))
				}
			})
			r.Post("/clone", func(w http.ResponseWriter, req *http.Request) {
				if gid, ok := intParam(w, req, "gid"); ok {
					respond(w, http.StatusCreated)(ops.CloneGroup(req.Context(), key(req), gid))
				}
			})

			r.Route("/subgroups", func(r chi.Router) {
				r.Post("/", func(w http.ResponseWriter, req *http.Request) {
					var in schedule.NewSubGroupInput
					gid, ok := intParam(w, req, "gid")
					if !ok || !decode(w, req, &in) {
						return
					}
					respond(w, http.StatusCreated)(ops.AddSubGroup(req.Context(), key(req), gid, in))
				})

				r.Route("/{sid}", func(r chi.Router) {
					r.Put("/", func(w http.ResponseWriter, req *http.Request) {
						var p schedule.SubGroupPatch
						gid, sid, ok := subGroupParams(w, req)
						if !ok || !decode(w, req, &p) {
							return
						}
						respond(w, http.StatusOK)(ops.UpdateSubGroup(req.Context(), key(req), gid, sid, p))
					})
					r.Delete("/", func(w http.ResponseWriter, req *http.Request) {
						if gid, sid, ok := subGroupParams(w, req); ok {
							respond(w, http.StatusOK)(ops.DeleteSubGroup(req.Context(), key(req), gid, sid))
						}
					})
					r.Post("/clone", func(w http.ResponseWriter, req *http.Request) {
						if gid, sid, ok := subGroupParams(w, req); ok {
							respond(w, http.StatusCreated)(ops.CloneSubGroup(req.Context(), key(req), gid, sid))
						}
					})

					r.Route("/shifts", func(r chi.Router) {
						r.Post("/", func(w http.ResponseWriter, req *http.Request) {
							var in schedule.NewShiftInput
							gid, sid, ok := subGroupParams(w, req)
							if !ok || !decode(w, req, &in) {
								return
							}
							respond(w, http.StatusCreated)(ops.AddShift(req.Context(), key(req), gid, sid, in))
						})
						r.Put("/{shid}", func(w http.ResponseWriter, req *http.Request) {
							var p schedule.ShiftPatch
							path, ok := shiftPath(w, req)
							if !ok || !decode(w, req, &p) {
								return
							}
							respond(w, http.StatusOK)(ops.UpdateShift(req.Context(), key(req), path, p))
						})
						r.Delete("/{shid}", func(w http.ResponseWriter, req *http.Request) {
							if path, ok := shiftPath(w, req); ok {
								respond(w, http.StatusOK)(ops.DeleteShift(req.Context(), key(req), path))
							}
						})
						r.Post("/{shid}/clone", func(w http.ResponseWriter, req *http.Request) {
							if path, ok := shiftPath(w, req); ok {
								respond(w, http.StatusCreated)(ops.CloneShift(req.Context(), key(req), path))
							}
						})
					})
				})
			})
		})
	})
}

func subGroupParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	gid, ok := intParam(w, r, "gid")
	if !ok {
		return 0, 0, false
	}
	sid, ok := intParam(w, r, "sid")
	return gid, sid, ok
}

func shiftPath(w http.ResponseWriter, r *http.Request) (schedule.ShiftPath, bool) {
	gid, sid, ok := subGroupParams(w, r)
	if !ok {
		return schedule.ShiftPath{}, false
	}
	return schedule.ShiftPath{GroupID: gid, SubGroupID: sid, ShiftID: chi.URLParam(r, "shid")}, true
}
