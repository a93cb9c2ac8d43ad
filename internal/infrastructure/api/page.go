package api

// ページの状態はすべてサーバー側のセッションから描画する
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1.0"/>
<title>Instant Outfit Ideas</title>
<script src="https://cdn.tailwindcss.com"></script>
<style>
body { font-family: Inter, system-ui, -apple-system, Segoe UI, Roboto, sans-serif; }
@keyframes shimmer { 0% { background-position: -1000px 0; } 100% { background-position: 1000px 0; } }
.shimmer { background-image: linear-gradient(to right, #e2e8f0 0%, #f1f5f9 20%, #e2e8f0 40%, #e2e8f0 100%); background-repeat: no-repeat; background-size: 2000px 100%; animation: shimmer 2s infinite; }
.drop-zone.drag-over { border-color: #7c3aed; background: #f5f3ff; }
</style>
</head>
<body class="bg-slate-50 text-slate-800">
<main class="container mx-auto px-4 sm:px-6 lg:px-8 pb-16">
  <div class="text-center py-16">
    <h1 class="text-4xl md:text-6xl font-bold tracking-tighter bg-gradient-to-r from-violet-600 to-purple-500 bg-clip-text text-transparent">Instant Outfit Ideas</h1>
    <p class="mt-4 max-w-2xl mx-auto text-lg text-slate-600">Upload a piece of clothing and let our AI create complete looks for you.</p>
  </div>

  <input id="file-input" type="file" accept="image/png,image/jpeg,image/webp" class="hidden"/>

  <div class="grid grid-cols-1 lg:grid-cols-2 gap-8">
    <section id="item-panel" class="hidden flex-col space-y-6">
      <div class="bg-white p-6 rounded-3xl shadow-sm border border-slate-200">
        <h2 class="text-xl font-bold mb-1">Your Item</h2>
        <p class="text-slate-500 mb-6">Change your item by clicking the image below.</p>
        <div id="drop-zone" class="drop-zone max-w-sm mx-auto aspect-square border-2 border-dashed border-slate-300 rounded-xl overflow-hidden cursor-pointer flex items-center justify-center">
          <img id="item-image" class="w-full h-full object-contain" alt="Uploaded item"/>
        </div>
      </div>
      <div class="flex flex-col sm:flex-row gap-4">
        <button id="generate-btn" class="flex-1 px-6 py-3 bg-violet-600 text-white font-semibold rounded-full hover:bg-violet-700 disabled:bg-slate-400 disabled:cursor-not-allowed">Generate Outfits</button>
        <button id="reset-btn" class="px-6 py-3 bg-white text-slate-700 font-semibold rounded-full border border-slate-300 hover:bg-slate-50">Start Over</button>
      </div>
    </section>

    <section id="gallery-panel" class="bg-white p-6 rounded-3xl shadow-sm border border-slate-200 min-h-[300px] lg:col-span-2">
      <h2 class="text-xl font-bold mb-1">AI-Generated Outfits</h2>
      <p class="text-slate-500 mb-6">Unique looks styled by AI, just for you.</p>
      <div id="error-banner" class="hidden bg-red-50 border border-red-200 text-red-700 px-4 py-3 rounded-lg mb-4" role="alert"></div>
      <div id="notice" class="hidden bg-blue-50 border border-blue-200 text-blue-700 px-4 py-3 rounded-lg mb-4"></div>
      <div id="cards" class="grid grid-cols-1 sm:grid-cols-3 gap-4"></div>
      <button id="empty-state" class="hidden w-full min-h-[200px] text-slate-500 rounded-lg hover:bg-slate-50"></button>
      <div class="mt-8 text-center">
        <button id="more-btn" class="hidden px-6 py-3 bg-white text-violet-600 font-semibold rounded-full border border-violet-300 hover:bg-violet-50 disabled:bg-slate-200 disabled:text-slate-500">Generate More</button>
      </div>
    </section>
  </div>
</main>

<script>
const $ = (id) => document.getElementById(id);
let sessionId = sessionStorage.getItem('outfitSession');
let state = null;

async function call(method, path, body) {
  const res = await fetch(path, { method, body });
  const json = await res.json().catch(() => ({ success: false, error: 'Unexpected response' }));
  if (json.session) {
    if (!isOutdated(json.session)) render(json.session, json.gallery);
  } else if (!json.success) {
    showError(json.error);
  }
  return { status: res.status, json };
}

async function ensureSession() {
  if (sessionId) {
    const { status } = await call('GET', '/api/sessions/' + sessionId);
    if (status !== 404) return;
  }
  const { json } = await call('POST', '/api/sessions');
  sessionId = json.session.id;
  sessionStorage.setItem('outfitSession', sessionId);
}

function showError(message) {
  const banner = $('error-banner');
  banner.textContent = message || '';
  banner.classList.toggle('hidden', !message);
}

function showNotice(message) {
  const notice = $('notice');
  notice.textContent = message;
  notice.classList.remove('hidden');
  setTimeout(() => notice.classList.add('hidden'), 4000);
}

function skeletonCard() {
  const el = document.createElement('div');
  el.className = 'flex flex-col gap-3';
  el.innerHTML = '<div class="aspect-square rounded-xl shimmer"></div><div class="h-6 rounded-md w-3/4 mx-auto shimmer"></div>';
  return el;
}

function outfitCard(outfit) {
  const el = document.createElement('div');
  el.className = 'flex flex-col gap-3';
  const img = document.createElement('img');
  img.src = outfit.src;
  img.alt = outfit.style + ' outfit';
  img.className = 'aspect-square w-full object-cover rounded-xl border border-slate-200';
  const label = document.createElement('h3');
  label.className = 'text-center font-medium text-slate-700';
  label.textContent = outfit.style;
  const actions = document.createElement('div');
  actions.className = 'flex justify-center gap-2';
  const download = document.createElement('a');
  download.href = outfit.downloadUrl;
  download.textContent = 'Download';
  download.className = 'px-3 py-1 text-sm rounded-full border border-slate-300';
  const share = document.createElement('button');
  share.textContent = 'Share';
  share.className = 'px-3 py-1 text-sm rounded-full border border-slate-300';
  share.onclick = () => shareOutfit(outfit);
  actions.append(download, share);
  el.append(img, label, actions);
  return el;
}

async function shareOutfit(outfit) {
  try {
    const blob = await (await fetch(outfit.src)).blob();
    const file = new File([blob], outfit.fileName, { type: blob.type });
    if (navigator.canShare && navigator.canShare({ files: [file] })) {
      await navigator.share({ files: [file], title: outfit.style + ' outfit' });
      return;
    }
    throw new Error('share unavailable');
  } catch (e) {
    if (e && e.name === 'AbortError') return;
    window.location.href = outfit.downloadUrl;
    showNotice('Sharing is not available here, so the image was downloaded instead.');
  }
}

// 追い越された応答は描画しない
function isOutdated(session) {
  if (!state || state.id !== session.id) return false;
  if (session.generation !== state.generation) return session.generation < state.generation;
  return Date.parse(session.updatedAt) < Date.parse(state.updatedAt);
}

function render(session, gallery) {
  state = session;
  $('item-panel').classList.toggle('hidden', !session.hasImage);
  $('item-panel').classList.toggle('flex', session.hasImage);
  $('gallery-panel').classList.toggle('lg:col-span-2', !session.hasImage);
  if (session.hasImage) $('item-image').src = session.uploadedImage;

  const busy = session.isLoading || session.isGeneratingMore;
  $('generate-btn').disabled = !gallery.canGenerate;
  $('generate-btn').textContent = session.isLoading ? 'Styling...' : 'Generate Outfits';

  showError(gallery.errorBanner);

  const cards = $('cards');
  cards.innerHTML = '';
  for (const card of gallery.cards) {
    cards.append(card.kind === 'skeleton' ? skeletonCard() : outfitCard(card.outfit));
  }

  const empty = $('empty-state');
  empty.textContent = gallery.emptyMessage || '';
  empty.classList.toggle('hidden', !gallery.emptyMessage);
  empty.disabled = session.hasImage;

  const more = $('more-btn');
  more.classList.toggle('hidden', !gallery.showGenerateMore);
  more.disabled = busy;
  more.textContent = session.isGeneratingMore ? 'Generating...' : 'Generate More';
}

async function upload(file) {
  if (!file || (state && (state.isLoading || state.isGeneratingMore))) return;
  const form = new FormData();
  form.append('image', file);
  await call('POST', '/api/sessions/' + sessionId + '/upload', form);
}

async function startGeneration(path) {
  const pending = call('POST', '/api/sessions/' + sessionId + path);
  setTimeout(() => call('GET', '/api/sessions/' + sessionId), 150);
  await pending;
}

$('file-input').onchange = (e) => upload(e.target.files[0]);
$('empty-state').onclick = () => $('file-input').click();
$('drop-zone').onclick = () => $('file-input').click();
$('drop-zone').ondragover = (e) => { e.preventDefault(); $('drop-zone').classList.add('drag-over'); };
$('drop-zone').ondragleave = () => $('drop-zone').classList.remove('drag-over');
$('drop-zone').ondrop = (e) => { e.preventDefault(); $('drop-zone').classList.remove('drag-over'); upload(e.dataTransfer.files[0]); };
$('gallery-panel').ondragover = (e) => e.preventDefault();
$('gallery-panel').ondrop = (e) => { e.preventDefault(); upload(e.dataTransfer.files[0]); };
$('generate-btn').onclick = () => startGeneration('/generate');
$('more-btn').onclick = () => startGeneration('/generate-more');
$('reset-btn').onclick = async () => {
  $('file-input').value = '';
  await call('POST', '/api/sessions/' + sessionId + '/reset');
};

ensureSession();
</script>
</body>
</html>
`
