package server

// indexHTML is the browser shell. It inlines /graph.svg and re-fetches it
// when an action's frame reports a change.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>taxotree</title>
<style>
  body { margin: 0; font-family: sans-serif; display: flex; height: 100vh; }
  #side { width: 320px; padding: 12px; border-right: 1px solid #ddd; overflow-y: auto; }
  #graph { flex: 1; overflow: auto; }
  #graph svg { width: 100%; height: 100%; }
  #results li { cursor: pointer; }
  #results li.dep { font-style: italic; color: #888; }
  #status { color: #b00; min-height: 1em; }
  #info dt { font-weight: bold; margin-top: 6px; }
  .controls { margin-bottom: 12px; }
</style>
</head>
<body>
<div id="side">
  <div class="controls">
    <input id="q" placeholder="Search" autocomplete="off">
    <select id="mode"><option value="label">label</option><option value="id">id</option></select>
  </div>
  <div class="controls">
    <select id="dir"><option value="children">children</option><option value="parents">parents</option></select>
    <label><input type="checkbox" id="dep"> deprecated</label>
  </div>
  <p id="status"></p>
  <ul id="results"></ul>
  <dl id="info"></dl>
</div>
<div id="graph"></div>
<script>
(function () {
  const graph = document.getElementById('graph');
  const enc = encodeURIComponent;

  async function refresh() {
    const res = await fetch('/graph.svg');
    graph.innerHTML = await res.text();
  }

  const status = document.getElementById('status');

  function structural(p) {
    if (!p) return false;
    return ['nodes', 'edges', 'extra_edges'].some(k =>
      p[k] && ((p[k].enter || []).length > 0 || (p[k].exit || []).length > 0));
  }

  async function post(path) {
    const res = await fetch(path, { method: 'POST' });
    if (!res.ok) {
      const err = await res.json().catch(() => ({ message: res.statusText }));
      status.textContent = err.message;
      return;
    }
    const frame = await res.json();
    status.textContent = frame.outcome === 'fetch-failed' ? 'Could not load neighbours.' : '';
    if (frame.outcome === 'expanded' || frame.outcome === 'collapsed' || structural(frame.patch)) {
      await refresh();
    }
  }

  async function info(id) {
    const res = await fetch('/api/node/' + enc(id));
    const dl = document.getElementById('info');
    dl.innerHTML = '';
    if (!res.ok) return;
    const n = await res.json();
    const add = (k, v) => {
      const dt = document.createElement('dt'); dt.textContent = k;
      const dd = document.createElement('dd'); dd.textContent = v;
      dl.append(dt, dd);
    };
    add('label', n.label);
    add('id', n.id);
    if (n.definition) add('definition', n.definition);
    if (n.dep) add('deprecated', n.dep);
    (n.parents || []).forEach(p => add('parent', p));
    (n.types || []).forEach(t => add('type', t));
  }

  graph.addEventListener('click', (ev) => {
    const node = ev.target.closest('.node');
    if (!node) return;
    if (ev.target.tagName === 'circle') {
      post('/api/toggle/' + enc(node.dataset.id));
    } else if (ev.target.tagName === 'text') {
      info(node.dataset.id);
    }
  });

  let timer;
  document.getElementById('q').addEventListener('input', (ev) => {
    clearTimeout(timer);
    timer = setTimeout(async () => {
      const q = ev.target.value.trim();
      const ul = document.getElementById('results');
      ul.innerHTML = '';
      if (!q) return;
      const mode = document.getElementById('mode').value;
      const res = await fetch('/api/search?q=' + enc(q) + '&mode=' + mode);
      const out = await res.json();
      if (out.errorMessage) {
        const li = document.createElement('li'); li.textContent = out.errorMessage;
        ul.append(li);
        return;
      }
      out.results.forEach(r => {
        const li = document.createElement('li');
        li.textContent = r.label || r.id;
        if (r.dep) li.className = 'dep';
        li.onclick = () => post('/api/select/' + enc(r.id));
        ul.append(li);
      });
    }, 250);
  });

  document.getElementById('dir').addEventListener('change', (ev) => post('/api/direction/' + ev.target.value));
  document.getElementById('dep').addEventListener('change', (ev) => post('/api/deprecated/' + ev.target.checked));

  refresh();
})();
</script>
</body>
</html>
`
