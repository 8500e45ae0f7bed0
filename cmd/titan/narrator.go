package main

import "github.com/titan-signal/titan/pkg/narrator"

// narratorService builds the shared Ollama-backed narrator every
// alert-producing worker narrates through, falling back to its
// deterministic template whenever OLLAMA_URL is unset or Ollama
// misbehaves.
func (a *app) narratorService() *narrator.Service {
	return narrator.NewService(a.http, a.cfg.OllamaURL, a.cfg.OllamaModel, a.log)
}
