package api

import (
	"net/http"
	"strings"

	"github.com/ZaguanLabs/vertrans"
)

func (s *Server) getFieldsForTranslation(w http.ResponseWriter, r *http.Request) {
	p, err := requireParams(r, "record_type")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	fields, err := vertrans.ResolveFields(r.Context(), s.docs, p["record_type"])
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

func storeKeyFrom(r *http.Request) (vertrans.StoreKey, error) {
	p, err := requireParams(r, "record_type", "record_id", "version_id", "language")
	if err != nil {
		return vertrans.StoreKey{}, err
	}
	return vertrans.StoreKey{
		RecordType: p["record_type"],
		RecordID:   p["record_id"],
		Version:    p["version_id"],
		Language:   p["language"],
	}, nil
}

func (s *Server) getTranslationForUI(w http.ResponseWriter, r *http.Request) {
	key, err := storeKeyFrom(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	fields, err := vertrans.Lookup(r.Context(), s.store, key)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

// getTranslations returns the stored translations of one version in several
// languages, given as a comma separated "languages" parameter.
func (s *Server) getTranslations(w http.ResponseWriter, r *http.Request) {
	p, err := requireParams(r, "record_type", "record_id", "version_id", "languages")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	base := vertrans.StoreKey{RecordType: p["record_type"], RecordID: p["record_id"], Version: p["version_id"]}
	out, err := vertrans.ParallelLookup(r.Context(), s.store, base, strings.Split(p["languages"], ","))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getTranslationStatus(w http.ResponseWriter, r *http.Request) {
	key, err := storeKeyFrom(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	recorder, ok := s.store.(vertrans.StatusRecorder)
	if !ok {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "translation store does not record status"})
		return
	}
	status, err := recorder.Status(r.Context(), key.Normalize())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]vertrans.TranslationStatus{"status": status})
}

func (s *Server) getVersionID(w http.ResponseWriter, r *http.Request) {
	p, err := requireParams(r, "record_type", "record_id", "modified")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	version, err := vertrans.VersionID(p["record_type"], p["record_id"], p["modified"])
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"version_id": version})
}

func (s *Server) getOriginalLanguage(w http.ResponseWriter, r *http.Request) {
	p, err := requireParams(r, "record_type")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	lang, err := s.orch.OriginalLanguage(r.Context(), p["record_type"], r.URL.Query().Get("lang"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"original_language": lang})
}

// translateRecord runs a translation synchronously and returns the result.
func (s *Server) translateRecord(w http.ResponseWriter, r *http.Request) {
	p, err := requireParams(r, "record_type", "record_id")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	result, err := s.orch.TranslateRecord(r.Context(), p["record_type"], p["record_id"])
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) onUpdate(w http.ResponseWriter, r *http.Request) {
	var evt vertrans.UpdateEvent
	if err := decodeBody(r, &evt); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := s.orch.OnUpdate(r.Context(), evt); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
