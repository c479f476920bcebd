package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RegisterChatPage serves the single-file chat page at the root route.
func RegisterChatPage(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.HTML(http.StatusOK, chatPageHTML)
	})
}

const chatPageHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Parley</title>
<style>
	*, *::before, *::after { box-sizing: border-box; }
	body {
		font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
		margin: 0; background: #fafafa; color: #111;
		display: flex; flex-direction: column; height: 100vh;
	}
	header { padding: 0.75rem 1rem; border-bottom: 1px solid #e5e5e5; background: #fff; }
	header h1 { margin: 0; font-size: 1rem; }
	#log { flex: 1; overflow-y: auto; padding: 1rem; }
	.turn { max-width: 48rem; margin: 0 auto 0.75rem; padding: 0.6rem 0.9rem; border-radius: 8px; white-space: pre-wrap; }
	.user { background: #111; color: #fff; }
	.assistant { background: #fff; border: 1px solid #e5e5e5; }
	.error { background: #fff4f4; border: 1px solid #f0c0c0; }
	table { border-collapse: collapse; margin-top: 0.5rem; font-size: 0.85rem; }
	th, td { border: 1px solid #ddd; padding: 0.25rem 0.5rem; text-align: left; }
	form { display: flex; gap: 0.5rem; padding: 1rem; border-top: 1px solid #e5e5e5; background: #fff; }
	input { flex: 1; padding: 0.6rem; border: 1px solid #ccc; border-radius: 6px; }
	button { padding: 0.6rem 1rem; border: 0; border-radius: 6px; background: #111; color: #fff; cursor: pointer; }
</style>
</head>
<body>
<header><h1>Parley &mdash; ask your email and your data</h1></header>
<div id="log"></div>
<form id="form">
	<input id="input" placeholder="Type a message..." autocomplete="off">
	<button>Send</button>
</form>
<script>
let sessionId = null;
const log = document.getElementById("log");

function addTurn(cls, text, table) {
	const div = document.createElement("div");
	div.className = "turn " + cls;
	div.textContent = text;
	if (table && table.rows.length) {
		const t = document.createElement("table");
		const head = t.insertRow();
		for (const col of table.columns) {
			const th = document.createElement("th");
			th.textContent = col;
			head.appendChild(th);
		}
		for (const row of table.rows) {
			const tr = t.insertRow();
			for (const col of table.columns) {
				tr.insertCell().textContent = row[col] ?? "";
			}
		}
		div.appendChild(t);
	}
	log.appendChild(div);
	log.scrollTop = log.scrollHeight;
}

async function ensureSession() {
	if (sessionId) return;
	const resp = await fetch("/api/v1/sessions", { method: "POST" });
	const body = await resp.json();
	sessionId = body.data.id;
}

document.getElementById("form").addEventListener("submit", async (e) => {
	e.preventDefault();
	const input = document.getElementById("input");
	const text = input.value.trim();
	if (!text) return;
	input.value = "";
	addTurn("user", text);

	await ensureSession();
	const resp = await fetch("/api/v1/sessions/" + sessionId + "/messages", {
		method: "POST",
		headers: { "Content-Type": "application/json" },
		body: JSON.stringify({ text }),
	});
	const body = await resp.json();
	if (!body.success) {
		addTurn("error", body.error);
		return;
	}
	addTurn("assistant", body.data.answer || "", body.data.result);
});
</script>
</body>
</html>
`
