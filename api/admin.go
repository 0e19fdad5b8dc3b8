package api

import (
	"net/http"

	"github.com/ZaguanLabs/vertrans"
	"github.com/gorilla/mux"
)

// maskedKey replaces the API key in settings responses. Sending it back
// unchanged keeps the stored key.
const maskedKey = "********"

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.repo.Settings(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if st.APIKey != "" {
		st.APIKey = maskedKey
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var st vertrans.Settings
	if err := decodeBody(r, &st); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if st.APIKey == maskedKey {
		current, err := s.repo.Settings(r.Context())
		if err != nil && !vertrans.IsNotFound(err) {
			writeError(w, s.logger, err)
			return
		}
		st.APIKey = current.APIKey
	}

	saved, err := s.repo.UpsertSettings(r.Context(), st)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.logger.Infow("translation settings updated",
		"autoTranslate", saved.EnableAutoTranslation, "targets", saved.TargetLanguages)
	if saved.APIKey != "" {
		saved.APIKey = maskedKey
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) listMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := s.repo.ListMaps(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if maps == nil {
		maps = []vertrans.TranslationMap{}
	}
	writeJSON(w, http.StatusOK, maps)
}

func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	m, err := s.repo.GetMap(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) putMap(w http.ResponseWriter, r *http.Request) {
	var m vertrans.TranslationMap
	if err := decodeBody(r, &m); err != nil {
		writeError(w, s.logger, err)
		return
	}
	m.Name = mux.Vars(r)["name"]

	saved, err := s.repo.SaveMap(r.Context(), m)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.logger.Infow("translation map saved", "name", saved.Name, "recordType", saved.RecordType, "active", saved.IsActive)
	writeJSON(w, http.StatusOK, saved)
}

// syncMap refreshes the field mappings of a map from the record type's
// schema. A map that does not exist yet is created inactive, named after
// its record type.
func (s *Server) syncMap(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	m, err := s.repo.GetMap(r.Context(), name)
	if err != nil {
		if !vertrans.IsNotFound(err) {
			writeError(w, s.logger, err)
			return
		}
		m = vertrans.TranslationMap{Name: name, RecordType: name}
	}

	fields, err := vertrans.ResolveFields(r.Context(), s.docs, m.RecordType)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	m.SyncFields(fields)

	saved, err := s.repo.SaveMap(r.Context(), m)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
