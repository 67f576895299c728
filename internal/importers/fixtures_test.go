package importers

const chromeExport = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file.
     It will be read and overwritten.
     DO NOT EDIT! -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3 ADD_DATE="1700000000" LAST_MODIFIED="1700000001" PERSONAL_TOOLBAR_FOLDER="true">Bookmarks bar</H3>
    <DL><p>
        <DT><A HREF="https://go.dev/doc/" ADD_DATE="1700000000" ICON="data:image/png;base64,AAAA">Go docs</A>
        <DT><H3 ADD_DATE="1700000000">Reading</H3>
        <DL><p>
            <DT><A HREF="https://example.com/article?utm_source=x" ADD_DATE="1700000100">Article</A>
        </DL><p>
    </DL><p>
    <DT><A HREF="https://news.ycombinator.com/">HN</A>
</DL><p>
`

const firefoxExport = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file.
     It will be read and overwritten.
     DO NOT EDIT! -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks Menu</H1>
<DL><p>
    <DT><A HREF="place:sort=8&amp;maxResults=10" ADD_DATE="1700000000000000">Recently Bookmarked</A>
    <DT><H3 ADD_DATE="1700000000" LAST_MODIFIED="1700000000" PERSONAL_TOOLBAR_FOLDER="true">Bookmarks Toolbar</H3>
    <DD>Add bookmarks to this folder to see them displayed on the Bookmarks Toolbar
    <DL><p>
        <DT><A HREF="https://www.mozilla.org/en-US/firefox/" ADD_DATE="1700000000123456" LAST_MODIFIED="1700000000" ICON_URI="https://www.mozilla.org/favicon.ico" TAGS="browser, mozilla">Firefox</A>
        <DD>The browser
    </DL><p>
</DL>
`

const safariExport = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
	<HTML>
	<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
	<Title>Bookmarks</Title>
	<H1>Bookmarks</H1>
	<DT><H3 FOLDED>Favorites</H3>
	<DL><p>
		<DT><A HREF="https://www.apple.com/">Apple</A>
	</DL><p>
	<DT><H3 FOLDED id="com.apple.ReadingList">com.apple.ReadingList</H3>
	<DL><p>
		<DT><A HREF="https://webkit.org/blog/">WebKit blog</A>
	</DL><p>
	</HTML>
`

const edgeExport = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3 ADD_DATE="1700000000" PERSONAL_TOOLBAR_FOLDER="true">Favorites bar</H3>
    <DL><p>
        <DT><A HREF="https://www.bing.com/">Bing</A>
    </DL><p>
    <DT><H3>Other favorites</H3>
    <DL><p>
    </DL><p>
</DL><p>
`

const raindropExport = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file by Raindrop.io -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Raindrop.io Bookmarks</TITLE>
<H1>Raindrop.io Bookmarks</H1>
<DL><p>
<DT><H3 ADD_DATE="1700000000">Design</H3>
<DL><p>
<DT><A HREF="https://dribbble.com/" ADD_DATE="1700000000" TAGS="inspiration,ui" DATA-COVER="https://cdn.example.com/c.png" DATA-IMPORTANT="true">Dribbble</A>
<DD>Design community
</DL><p>
</DL><p>
`

const raindropCSVExport = `id,title,note,excerpt,url,folder,tags,created,cover,highlights,favorite
1,Go blog,,Official blog,https://go.dev/blog/,Dev/Go,"go, blog",2023-01-15T10:00:00.000Z,https://go.dev/cover.png,,false
2,Gin,My web framework,,https://gin-gonic.com/,Dev/Go,,2023-01-16T10:00:00.000Z,,,true
3,Broken,,,,Dev,,,,,
4,Top,,,https://example.org/,,,,,,
`
