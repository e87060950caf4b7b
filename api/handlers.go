package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	contractx "github.com/tanpawarit/chative-support/agent/contract"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

const maxBodyBytes = 1 << 20

type sendMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
	UserID         string `json:"userId"`
}

type sendMessageResponse struct {
	Success        bool                `json:"success"`
	ConversationID string              `json:"conversationId"`
	Message        *storex.Message     `json:"message"`
	AgentType      contractx.AgentType `json:"agentType"`
	Reasoning      string              `json:"reasoning"`
}

type conversationResponse struct {
	Success      bool                 `json:"success"`
	Conversation *storex.Conversation `json:"conversation"`
}

type conversationsResponse struct {
	Success       bool                  `json:"success"`
	Conversations []storex.Conversation `json:"conversations"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type agentSummary struct {
	Type         contractx.AgentType `json:"type"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Capabilities []string            `json:"capabilities"`
}

type agentsResponse struct {
	Success bool           `json:"success"`
	Agents  []agentSummary `json:"agents"`
}

type agentDetail struct {
	Type        contractx.AgentType `json:"type"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
}

type capabilitiesResponse struct {
	Success      bool                   `json:"success"`
	Agent        agentDetail            `json:"agent"`
	Capabilities []contractx.Capability `json:"capabilities"`
}

type healthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

type notFoundResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var body sendMessageRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, NewInvalidRequestError("Invalid JSON body"))
		return
	}

	out, err := s.service.HandleMessage(r.Context(), contractx.TurnRequest{
		ConversationID: body.ConversationID,
		Message:        body.Message,
		UserID:         body.UserID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{
		Success:        true,
		ConversationID: out.ConversationID,
		Message:        out.Message,
		AgentType:      out.AgentType,
		Reasoning:      out.Reasoning,
	})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.service.GetConversation(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conversationResponse{Success: true, Conversation: conv})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.service.ListConversations(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if convs == nil {
		convs = []storex.Conversation{}
	}
	writeJSON(w, http.StatusOK, conversationsResponse{Success: true, Conversations: convs})
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteConversation(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Conversation deleted successfully"})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	infos := s.service.Agents()
	out := make([]agentSummary, 0, len(infos))
	for _, a := range infos {
		out = append(out, agentSummary{
			Type:         a.Type,
			Name:         a.Name,
			Description:  a.Description,
			Capabilities: a.CapabilityNames(),
		})
	}
	writeJSON(w, http.StatusOK, agentsResponse{Success: true, Agents: out})
}

func (s *Server) handleAgentCapabilities(w http.ResponseWriter, r *http.Request) {
	t, ok := contractx.ParseAgentType(r.PathValue("type"))
	if ok {
		for _, a := range s.service.Agents() {
			if a.Type != t {
				continue
			}
			caps := a.Capabilities
			if caps == nil {
				caps = []contractx.Capability{}
			}
			writeJSON(w, http.StatusOK, capabilitiesResponse{
				Success:      true,
				Agent:        agentDetail{Type: a.Type, Name: a.Name, Description: a.Description},
				Capabilities: caps,
			})
			return
		}
	}
	s.writeError(w, r, NewNotFoundError("Agent type not found"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Uptime:    now.Sub(s.startedAt).Seconds(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, notFoundResponse{
		Status:  "error",
		Message: "Route " + r.URL.RequestURI() + " not found",
	})
}
