package httpadapter

import (
	"html/template"
	"net/http"

	"github.com/PabloGalante/vetra-proxy/internal/observability"
)

type adminPanelData struct {
	Model  string
	Models []string
	Rules  []string
	Chats  []string
}

var adminPanel = template.Must(template.New("admin").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Admin Panel</title>
  <style>
    body { font-family: sans-serif; max-width: 960px; margin: 2rem auto; }
    section { margin-bottom: 2rem; }
    pre { background: #f4f4f4; padding: 1rem; white-space: pre-wrap; }
  </style>
</head>
<body>
  <h1>Admin Panel</h1>

  <section>
    <h2>Model</h2>
    <p>Current model: <strong id="current-model">{{.Model}}</strong></p>
    <select id="model-selector">
      {{- range .Models}}
      <option value="{{.}}"{{if eq . $.Model}} selected{{end}}>{{.}}</option>
      {{- end}}
    </select>
    <button onclick="updateModel()">Update</button>
  </section>

  <section>
    <h2>Rules</h2>
    <ul id="rules-list">
      {{- range $i, $rule := .Rules}}
      <li>{{$rule}} <button onclick="deleteRule({{$i}})">Delete</button></li>
      {{- end}}
    </ul>
    <input id="new-rule" type="text" placeholder="New rule, or Block: phrase">
    <button onclick="addRule()">Add</button>
  </section>

  <section>
    <h2>Chats</h2>
    <ul id="chats-list">
      {{- range .Chats}}
      <li><a href="#" data-chat="{{.}}" onclick="viewChat(this.dataset.chat); return false;">{{.}}</a></li>
      {{- end}}
    </ul>
    <pre id="chat-view"></pre>
  </section>

  <script>
    async function call(method, url, body) {
      const res = await fetch(url, {
        method: method,
        headers: {'Content-Type': 'application/json'},
        body: body ? JSON.stringify(body) : undefined,
      });
      const data = await res.json();
      if (!res.ok) throw new Error(data.detail || res.statusText);
      return data;
    }

    function renderRules(rules) {
      const list = document.getElementById('rules-list');
      list.innerHTML = '';
      rules.forEach((rule, index) => {
        const li = document.createElement('li');
        li.textContent = rule + ' ';
        const btn = document.createElement('button');
        btn.textContent = 'Delete';
        btn.onclick = () => deleteRule(index);
        li.appendChild(btn);
        list.appendChild(li);
      });
    }

    async function updateModel() {
      const model = document.getElementById('model-selector').value;
      try {
        const data = await call('POST', '/api/model', {model: model});
        document.getElementById('current-model').textContent = data.model;
      } catch (err) { alert('Error updating model: ' + err.message); }
    }

    async function addRule() {
      const input = document.getElementById('new-rule');
      const rule = input.value.trim();
      if (!rule) return;
      try {
        const data = await call('POST', '/api/rules', {rule: rule});
        input.value = '';
        renderRules(data.rules);
      } catch (err) { alert('Error adding rule: ' + err.message); }
    }

    async function deleteRule(index) {
      try {
        const data = await call('DELETE', '/api/rules/' + index);
        renderRules(data.rules);
      } catch (err) { alert('Error deleting rule: ' + err.message); }
    }

    async function viewChat(id) {
      try {
        const data = await call('GET', '/api/chats/' + encodeURIComponent(id));
        document.getElementById('chat-view').textContent = data.history
          .map(m => m.role.toUpperCase() + ': ' + m.content)
          .join('\n\n');
      } catch (err) { alert('Error loading chat: ' + err.message); }
    }
  </script>
</body>
</html>
`))

func (s *Server) handleAdminPanel(w http.ResponseWriter, r *http.Request) {
	ids := s.svc.ListConversations(r.Context())
	chats := make([]string, 0, len(ids))
	for _, id := range ids {
		chats = append(chats, string(id))
	}

	data := adminPanelData{
		Model:  s.svc.CurrentModel(),
		Models: s.svc.Models(),
		Rules:  s.svc.ListRules(r.Context()),
		Chats:  chats,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := adminPanel.Execute(w, data); err != nil {
		observability.LoggerFromContext(r.Context()).Error("failed to render admin panel", "error", err)
	}
}
